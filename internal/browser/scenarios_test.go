package browser

import (
	"testing"

	"github.com/rs/zerolog"

	"apiprobe/internal/config"
)

func TestScenariosCoverEveryFeatureArea(t *testing.T) {
	m := NewManager(config.Default().Web, zerolog.Nop())

	names := make(map[string]bool)
	for _, sc := range Scenarios(m) {
		if sc.Run == nil {
			t.Errorf("Scenario %q has no run function", sc.Name)
		}
		if names[sc.Name] {
			t.Errorf("Duplicate scenario name %q", sc.Name)
		}
		names[sc.Name] = true
	}

	for _, want := range []string{
		"web: form authentication",
		"web: dynamic loading",
		"web: form controls",
		"web: dynamic controls",
		"web: javascript alerts",
		"web: hover reveals captions",
		"web: file upload and download",
		"web: multiple windows",
		"web: drag and drop",
	} {
		if !names[want] {
			t.Errorf("Expected scenario %q in the web suite", want)
		}
	}
}

func TestDetachWithoutAttach(t *testing.T) {
	m := NewManager(config.Default().Web, zerolog.Nop())

	if err := m.Detach(); err != nil {
		t.Errorf("Expected Detach on a never-attached manager to be a no-op, got %v", err)
	}
}
