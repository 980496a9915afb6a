// Package browser drives the optional web phase over the Chrome DevTools
// Protocol. It is a thin layer: navigation, script evaluation and dialog
// handling against a browser someone else started. The Manager follows the
// same ownership rules as the session registry: attached lazily, borrowed
// by scenarios, detached exactly once at orchestrator teardown.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/dom"
	"github.com/mafredri/cdp/protocol/input"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"
	"github.com/rs/zerolog"

	"apiprobe/internal/config"
)

// pollInterval paces WaitFor condition checks.
const pollInterval = 200 * time.Millisecond

// Manager owns the single DevTools connection for the process.
type Manager struct {
	settings config.WebSettings
	log      zerolog.Logger

	dt     *devtool.DevTools
	conn   *rpcc.Conn
	client *cdp.Client
}

// NewManager creates a detached manager. No connection is opened until the
// first scenario asks for the client.
func NewManager(settings config.WebSettings, log zerolog.Logger) *Manager {
	return &Manager{settings: settings, log: log}
}

// attach connects to the browser's first page target, creating one if the
// browser has none.
func (m *Manager) attach(ctx context.Context) error {
	dt := devtool.New(m.settings.DevToolsURL)
	target, err := dt.Get(ctx, devtool.Page)
	if err != nil {
		target, err = dt.Create(ctx)
		if err != nil {
			return fmt.Errorf("no debuggable page at %s: %w", m.settings.DevToolsURL, err)
		}
	}

	conn, err := rpcc.DialContext(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		return fmt.Errorf("dialing devtools socket: %w", err)
	}

	client := cdp.NewClient(conn)
	if err := client.Page.Enable(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("enabling page events: %w", err)
	}

	m.dt = dt
	m.conn = conn
	m.client = client
	m.log.Info().Str("devtools", m.settings.DevToolsURL).Msg("attached to browser")
	return nil
}

// ensure returns the CDP client, attaching on first use.
func (m *Manager) ensure(ctx context.Context) (*cdp.Client, error) {
	if m.client == nil {
		if err := m.attach(ctx); err != nil {
			return nil, err
		}
	}
	return m.client, nil
}

// Detach closes the DevTools connection. Safe to call when never attached.
func (m *Manager) Detach() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	m.client = nil
	return err
}

// Navigate loads the path (relative to the configured base URL) and waits
// for the page load event, bounded by the page timeout.
func (m *Manager) Navigate(ctx context.Context, path string) error {
	client, err := m.ensure(ctx)
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, m.settings.PageTimeout)
	defer cancel()

	loaded, err := client.Page.LoadEventFired(navCtx)
	if err != nil {
		return err
	}
	defer loaded.Close()

	url := m.settings.BaseURL + path
	if _, err := client.Page.Navigate(navCtx, page.NewNavigateArgs(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if _, err := loaded.Recv(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}

	m.log.Debug().Str("url", url).Msg("page loaded")
	return nil
}

// Eval runs a JavaScript expression in the page and unmarshals its value
// into out (which may be nil when the result does not matter).
func (m *Manager) Eval(ctx context.Context, expr string, out interface{}) error {
	client, err := m.ensure(ctx)
	if err != nil {
		return err
	}

	evalCtx, cancel := context.WithTimeout(ctx, m.settings.StepTimeout)
	defer cancel()

	return evalOn(evalCtx, client, expr, out)
}

// evalOn runs an expression against an explicit client, so it also serves
// secondary windows. Promises are awaited before the value is returned.
func evalOn(ctx context.Context, client *cdp.Client, expr string, out interface{}) error {
	args := runtime.NewEvaluateArgs(expr).SetReturnByValue(true).SetAwaitPromise(true)
	reply, err := client.Runtime.Evaluate(ctx, args)
	if err != nil {
		return err
	}
	if reply.ExceptionDetails != nil {
		return fmt.Errorf("javascript error: %s", reply.ExceptionDetails.Error())
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(reply.Result.Value, out)
}

// WaitFor polls a boolean JavaScript expression until it is true, checking
// every pollInterval and giving up at the step timeout. This is the one
// bounded-wait primitive the web scenarios share.
func (m *Manager) WaitFor(ctx context.Context, expr string) error {
	deadline := time.Now().Add(m.settings.StepTimeout)
	for {
		var ok bool
		if err := m.Eval(ctx, expr, &ok); err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("condition %q not met within %s", expr, m.settings.StepTimeout)
		}
		t := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// TriggerDialog evaluates an expression expected to open a JavaScript
// dialog, answers the dialog, and returns its message. The evaluation
// blocks inside the page until the dialog is handled, so the two steps run
// side by side.
func (m *Manager) TriggerDialog(ctx context.Context, triggerExpr string, accept bool, promptText string) (string, error) {
	client, err := m.ensure(ctx)
	if err != nil {
		return "", err
	}

	dialogCtx, cancel := context.WithTimeout(ctx, m.settings.StepTimeout)
	defer cancel()

	opening, err := client.Page.JavascriptDialogOpening(dialogCtx)
	if err != nil {
		return "", err
	}
	defer opening.Close()

	evalDone := make(chan error, 1)
	go func() {
		evalDone <- m.Eval(dialogCtx, triggerExpr, nil)
	}()

	ev, err := opening.Recv()
	if err != nil {
		return "", fmt.Errorf("no dialog opened: %w", err)
	}

	answer := page.NewHandleJavaScriptDialogArgs(accept)
	if promptText != "" {
		answer = answer.SetPromptText(promptText)
	}
	if err := client.Page.HandleJavaScriptDialog(dialogCtx, answer); err != nil {
		return "", fmt.Errorf("answering dialog: %w", err)
	}

	if err := <-evalDone; err != nil {
		return "", err
	}
	return ev.Message, nil
}

// Hover moves the mouse to the center of the first element matching the
// selector, so CSS hover state takes effect.
func (m *Manager) Hover(ctx context.Context, selector string) error {
	client, err := m.ensure(ctx)
	if err != nil {
		return err
	}

	center := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el === null) return null;
		const r = el.getBoundingClientRect();
		return [r.left + r.width / 2, r.top + r.height / 2];
	})()`, selector)
	var point []float64
	if err := m.Eval(ctx, center, &point); err != nil {
		return err
	}
	if len(point) != 2 {
		return fmt.Errorf("no element matches %q", selector)
	}

	hoverCtx, cancel := context.WithTimeout(ctx, m.settings.StepTimeout)
	defer cancel()
	return client.Input.DispatchMouseEvent(hoverCtx, input.NewDispatchMouseEventArgs("mouseMoved", point[0], point[1]))
}

// SetFileInput attaches local files to the file input matching the
// selector, the protocol equivalent of typing a path into it.
func (m *Manager) SetFileInput(ctx context.Context, selector string, paths ...string) error {
	client, err := m.ensure(ctx)
	if err != nil {
		return err
	}

	domCtx, cancel := context.WithTimeout(ctx, m.settings.StepTimeout)
	defer cancel()

	doc, err := client.DOM.GetDocument(domCtx, dom.NewGetDocumentArgs())
	if err != nil {
		return err
	}
	node, err := client.DOM.QuerySelector(domCtx, dom.NewQuerySelectorArgs(doc.Root.NodeID, selector))
	if err != nil {
		return err
	}
	if node.NodeID == 0 {
		return fmt.Errorf("no element matches %q", selector)
	}
	return client.DOM.SetFileInputFiles(domCtx, dom.NewSetFileInputFilesArgs(paths).SetNodeID(node.NodeID))
}

// WithWindow waits for a second page whose URL contains the fragment,
// attaches to it, runs fn against it, and closes the window afterwards.
// The main page connection is untouched throughout.
func (m *Manager) WithWindow(ctx context.Context, urlFragment string, fn func(ctx context.Context, client *cdp.Client) error) error {
	if _, err := m.ensure(ctx); err != nil {
		return err
	}

	winCtx, cancel := context.WithTimeout(ctx, m.settings.StepTimeout)
	defer cancel()

	var target *devtool.Target
	for target == nil {
		targets, err := m.dt.List(winCtx)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if t.Type == devtool.Page && strings.Contains(t.URL, urlFragment) {
				target = t
				break
			}
		}
		if target != nil {
			break
		}
		t := time.NewTimer(pollInterval)
		select {
		case <-winCtx.Done():
			t.Stop()
			return fmt.Errorf("no window matching %q appeared: %w", urlFragment, winCtx.Err())
		case <-t.C:
		}
	}

	conn, err := rpcc.DialContext(winCtx, target.WebSocketDebuggerURL)
	if err != nil {
		return fmt.Errorf("dialing second window: %w", err)
	}

	fnErr := fn(winCtx, cdp.NewClient(conn))
	conn.Close()
	if err := m.dt.Close(winCtx, target); err != nil {
		m.log.Warn().Err(err).Msg("closing second window failed")
	}
	return fnErr
}
