package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mafredri/cdp"

	"apiprobe/internal/scenario"
)

// Scenarios returns the web suite, run against the-internet style demo
// pages. Each one drives the page through the shared Manager and asserts
// on DOM state rather than on visuals.
func Scenarios(m *Manager) []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "web: form authentication", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runAuthentication(ctx, m)
		}},
		{Name: "web: dynamic loading", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runDynamicLoading(ctx, m)
		}},
		{Name: "web: form controls", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runFormControls(ctx, m)
		}},
		{Name: "web: dynamic controls", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runDynamicControls(ctx, m)
		}},
		{Name: "web: javascript alerts", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runAlerts(ctx, m)
		}},
		{Name: "web: hover reveals captions", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runHovers(ctx, m)
		}},
		{Name: "web: file upload and download", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runFileOperations(ctx, m)
		}},
		{Name: "web: multiple windows", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runMultipleWindows(ctx, m)
		}},
		{Name: "web: drag and drop", Run: func(ctx context.Context, _ *scenario.Deps) error {
			return runDragAndDrop(ctx, m)
		}},
	}
}

func login(ctx context.Context, m *Manager, username, password string) error {
	if err := m.Navigate(ctx, "/login"); err != nil {
		return err
	}
	expr := fmt.Sprintf(`(() => {
		document.getElementById("username").value = %q;
		document.getElementById("password").value = %q;
		document.getElementById("login").submit();
	})()`, username, password)
	if err := m.Eval(ctx, expr, nil); err != nil {
		return err
	}
	return m.WaitFor(ctx, `document.getElementById("flash") !== null`)
}

func flashText(ctx context.Context, m *Manager) (string, error) {
	var text string
	err := m.Eval(ctx, `document.getElementById("flash").textContent.trim()`, &text)
	return text, err
}

func runAuthentication(ctx context.Context, m *Manager) error {
	if err := login(ctx, m, "tomsmith", "SuperSecretPassword!"); err != nil {
		return fmt.Errorf("valid login: %w", err)
	}
	flash, err := flashText(ctx, m)
	if err != nil {
		return err
	}
	if !strings.Contains(flash, "You logged into a secure area") {
		return fmt.Errorf("valid login: unexpected flash message %q", flash)
	}

	var onSecure bool
	if err := m.Eval(ctx, `location.pathname === "/secure"`, &onSecure); err != nil {
		return err
	}
	if !onSecure {
		return fmt.Errorf("valid login did not land on the secure page")
	}

	if err := m.Eval(ctx, `document.querySelector("#content a.button").click()`, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := m.WaitFor(ctx, `location.pathname === "/login"`); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if err := login(ctx, m, "tomsmith", "wrongpassword"); err != nil {
		return fmt.Errorf("invalid login: %w", err)
	}
	flash, err = flashText(ctx, m)
	if err != nil {
		return err
	}
	if !strings.Contains(flash, "Your password is invalid") {
		return fmt.Errorf("invalid login: unexpected flash message %q", flash)
	}
	return nil
}

func runDynamicLoading(ctx context.Context, m *Manager) error {
	// Example 1 hides the element, example 2 creates it after a delay.
	for _, variant := range []string{"1", "2"} {
		if err := m.Navigate(ctx, "/dynamic_loading/"+variant); err != nil {
			return err
		}
		if err := m.Eval(ctx, `document.querySelector("#start button").click()`, nil); err != nil {
			return fmt.Errorf("variant %s: start: %w", variant, err)
		}
		visible := `(() => {
			const el = document.getElementById("finish");
			return el !== null && el.offsetParent !== null;
		})()`
		if err := m.WaitFor(ctx, visible); err != nil {
			return fmt.Errorf("variant %s: %w", variant, err)
		}
		var text string
		if err := m.Eval(ctx, `document.getElementById("finish").textContent.trim()`, &text); err != nil {
			return err
		}
		if text != "Hello World!" {
			return fmt.Errorf("variant %s: finish text %q", variant, text)
		}
	}
	return nil
}

func runFormControls(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/checkboxes"); err != nil {
		return err
	}
	// Toggle both boxes so the first ends checked and the second unchecked.
	toggle := `(() => {
		const boxes = document.querySelectorAll("#checkboxes input");
		boxes.forEach(b => b.click());
		return [boxes[0].checked, boxes[1].checked];
	})()`
	var states []bool
	if err := m.Eval(ctx, toggle, &states); err != nil {
		return err
	}
	if len(states) != 2 || !states[0] || states[1] {
		return fmt.Errorf("checkbox states after toggle: %v", states)
	}

	if err := m.Navigate(ctx, "/dropdown"); err != nil {
		return err
	}
	selectTwo := `(() => {
		const dd = document.getElementById("dropdown");
		dd.value = "2";
		dd.dispatchEvent(new Event("change"));
		return dd.options[dd.selectedIndex].text;
	})()`
	var selected string
	if err := m.Eval(ctx, selectTwo, &selected); err != nil {
		return err
	}
	if selected != "Option 2" {
		return fmt.Errorf("dropdown selected %q", selected)
	}
	return nil
}

func runDynamicControls(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/dynamic_controls"); err != nil {
		return err
	}

	// Remove the checkbox, then bring it back.
	if err := m.Eval(ctx, `document.querySelector("#checkbox-example button").click()`, nil); err != nil {
		return fmt.Errorf("remove checkbox: %w", err)
	}
	gone := `(() => {
		const msg = document.getElementById("message");
		return msg !== null && msg.textContent.includes("It's gone!")
			&& document.getElementById("checkbox") === null;
	})()`
	if err := m.WaitFor(ctx, gone); err != nil {
		return fmt.Errorf("remove checkbox: %w", err)
	}

	if err := m.Eval(ctx, `document.querySelector("#checkbox-example button").click()`, nil); err != nil {
		return fmt.Errorf("add checkbox: %w", err)
	}
	back := `(() => {
		const msg = document.getElementById("message");
		return msg !== null && msg.textContent.includes("It's back!")
			&& document.getElementById("checkbox") !== null;
	})()`
	if err := m.WaitFor(ctx, back); err != nil {
		return fmt.Errorf("add checkbox: %w", err)
	}

	// Enable the text input, type into it, then disable it again.
	if err := m.Eval(ctx, `document.querySelector("#input-example button").click()`, nil); err != nil {
		return fmt.Errorf("enable input: %w", err)
	}
	if err := m.WaitFor(ctx, `!document.querySelector("#input-example input").disabled`); err != nil {
		return fmt.Errorf("enable input: %w", err)
	}
	if err := m.Eval(ctx, `document.querySelector("#input-example input").value = "filled while enabled"`, nil); err != nil {
		return err
	}

	if err := m.Eval(ctx, `document.querySelector("#input-example button").click()`, nil); err != nil {
		return fmt.Errorf("disable input: %w", err)
	}
	if err := m.WaitFor(ctx, `document.querySelector("#input-example input").disabled`); err != nil {
		return fmt.Errorf("disable input: %w", err)
	}

	var typed string
	if err := m.Eval(ctx, `document.querySelector("#input-example input").value`, &typed); err != nil {
		return err
	}
	if typed != "filled while enabled" {
		return fmt.Errorf("input lost its value when disabled: %q", typed)
	}
	return nil
}

func runAlerts(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/javascript_alerts"); err != nil {
		return err
	}

	msg, err := m.TriggerDialog(ctx, `jsAlert()`, true, "")
	if err != nil {
		return fmt.Errorf("alert: %w", err)
	}
	if msg != "I am a JS Alert" {
		return fmt.Errorf("alert message %q", msg)
	}

	if _, err := m.TriggerDialog(ctx, `jsConfirm()`, false, ""); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	var result string
	if err := m.Eval(ctx, `document.getElementById("result").textContent`, &result); err != nil {
		return err
	}
	if !strings.Contains(result, "Cancel") {
		return fmt.Errorf("dismissed confirm: result %q", result)
	}

	if _, err := m.TriggerDialog(ctx, `jsPrompt()`, true, "automated"); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if err := m.Eval(ctx, `document.getElementById("result").textContent`, &result); err != nil {
		return err
	}
	if !strings.Contains(result, "automated") {
		return fmt.Errorf("prompt: result %q", result)
	}
	return nil
}

func runHovers(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/hovers"); err != nil {
		return err
	}

	for i := 1; i <= 3; i++ {
		figure := fmt.Sprintf("div.figure:nth-of-type(%d)", i)
		if err := m.Hover(ctx, figure); err != nil {
			return fmt.Errorf("avatar %d: %w", i, err)
		}

		caption := fmt.Sprintf(`(() => {
			const cap = document.querySelector("%s .figcaption");
			return cap !== null && cap.offsetParent !== null;
		})()`, figure)
		if err := m.WaitFor(ctx, caption); err != nil {
			return fmt.Errorf("avatar %d: caption never appeared: %w", i, err)
		}

		var name string
		if err := m.Eval(ctx, fmt.Sprintf(`document.querySelector("%s .figcaption h5").textContent`, figure), &name); err != nil {
			return err
		}
		want := fmt.Sprintf("name: user%d", i)
		if !strings.Contains(strings.ToLower(name), want) {
			return fmt.Errorf("avatar %d: caption %q, want %q", i, name, want)
		}
	}
	return nil
}

func runFileOperations(ctx context.Context, m *Manager) error {
	// Download: fetch the first offered file from the page's own origin and
	// check it has content.
	if err := m.Navigate(ctx, "/download"); err != nil {
		return err
	}
	download := `(() => {
		const link = document.querySelector(".example a[href^='download']");
		if (link === null) return Promise.resolve(-1);
		return fetch(link.href).then(r => r.ok ? r.arrayBuffer() : null)
			.then(buf => buf === null ? -1 : buf.byteLength);
	})()`
	var size float64
	if err := m.Eval(ctx, download, &size); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("download: fetched file is empty or unavailable")
	}

	// Upload: push a locally created file through the form and check the
	// page echoes its name.
	local, err := os.CreateTemp("", "upload-*.txt")
	if err != nil {
		return err
	}
	defer os.Remove(local.Name())
	if _, err := local.WriteString("file content for the upload check\n"); err != nil {
		local.Close()
		return err
	}
	local.Close()

	if err := m.Navigate(ctx, "/upload"); err != nil {
		return err
	}
	if err := m.SetFileInput(ctx, "#file-upload", local.Name()); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := m.Eval(ctx, `document.getElementById("file-submit").click()`, nil); err != nil {
		return fmt.Errorf("upload: submit: %w", err)
	}

	uploaded := `(() => {
		const h = document.querySelector("h3");
		return h !== null && h.textContent === "File Uploaded!";
	})()`
	if err := m.WaitFor(ctx, uploaded); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	var echoed string
	if err := m.Eval(ctx, `document.getElementById("uploaded-files").textContent.trim()`, &echoed); err != nil {
		return err
	}
	if !strings.Contains(echoed, filepath.Base(local.Name())) {
		return fmt.Errorf("upload: page reports %q, want the uploaded file name", echoed)
	}
	return nil
}

func runMultipleWindows(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/windows"); err != nil {
		return err
	}
	if err := m.Eval(ctx, `document.querySelector("#content a").click()`, nil); err != nil {
		return fmt.Errorf("open window: %w", err)
	}

	err := m.WithWindow(ctx, "/windows/new", func(ctx context.Context, client *cdp.Client) error {
		var heading string
		if err := evalOn(ctx, client, `document.querySelector("h3").textContent`, &heading); err != nil {
			return err
		}
		if heading != "New Window" {
			return fmt.Errorf("second window heading %q", heading)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The main page must be unaffected by opening and closing the second
	// window.
	var onWindows bool
	if err := m.Eval(ctx, `location.pathname === "/windows"`, &onWindows); err != nil {
		return err
	}
	if !onWindows {
		return fmt.Errorf("main window left the windows page")
	}
	return nil
}

func runDragAndDrop(ctx context.Context, m *Manager) error {
	if err := m.Navigate(ctx, "/drag_and_drop"); err != nil {
		return err
	}
	// The page listens for HTML5 drag events, so synthesize them directly.
	drag := `(() => {
		const a = document.getElementById("column-a");
		const b = document.getElementById("column-b");
		const dt = new DataTransfer();
		a.dispatchEvent(new DragEvent("dragstart", {dataTransfer: dt, bubbles: true}));
		b.dispatchEvent(new DragEvent("drop", {dataTransfer: dt, bubbles: true}));
		a.dispatchEvent(new DragEvent("dragend", {dataTransfer: dt, bubbles: true}));
		return document.getElementById("column-a").querySelector("header").textContent;
	})()`
	var header string
	if err := m.Eval(ctx, drag, &header); err != nil {
		return err
	}
	if header != "B" {
		return fmt.Errorf("column A header after drop: %q", header)
	}
	return nil
}
