package noise

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences canvas resizes, source changes and screenshots across
// frames for automated visual testing. Attach to a Scene via SetTestRunner.
//
// Supported actions:
//
//	{"action": "resize", "width": 320, "height": 200}
//	{"action": "source", "label": "brick"}   // label "" clears the source
//	{"action": "wait", "frames": 3}
//	{"action": "screenshot", "label": "after-resize"}
type TestRunner struct {
	// Canvas is the target of resize steps.
	Canvas *Canvas
	// Control is the target of source steps.
	Control *TiledImage
	// Sources maps the labels used by source steps to sources.
	Sources map[string]Source

	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Scene via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "resize", "source", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the scene. The runner's step method
// is called from Scene.Update after posted callbacks have run.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. While the control is still
// measuring its source the script pauses, so screenshots show finished grids.
func (r *TestRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.Control != nil && r.Control.Measuring() {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "resize":
		if r.Canvas != nil {
			r.Canvas.SetSize(st.Width, st.Height)
		}
	case "source":
		if r.Control != nil {
			var src Source
			if st.Label != "" {
				src = r.Sources[st.Label]
				if src == nil {
					debugf("test script: unknown source %q", st.Label)
				}
			}
			r.Control.SetSource(src)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
