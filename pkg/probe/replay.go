package probe

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Capture is one recorded probe invocation.
type Capture struct {
	Command string `yaml:"command"`
	Output  `yaml:",inline"`
}

type captureFile struct {
	Captures []Capture `yaml:"captures"`
}

// Replay serves previously captured outputs keyed by command line.
// Commands that were never captured fail, so checks fall back to their
// fail-closed defaults exactly as on a host where the command is missing.
type Replay struct {
	outputs map[string]Output
}

// NewReplay builds a replay runner from captures.
func NewReplay(captures []Capture) *Replay {
	r := &Replay{outputs: make(map[string]Output, len(captures))}
	for _, c := range captures {
		r.outputs[c.Command] = c.Output
	}
	return r
}

// LoadReplay reads a capture file written by Recorder.Save.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f captureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse capture file %s: %w", path, err)
	}
	return NewReplay(f.Captures), nil
}

func (r *Replay) Run(_ context.Context, spec Spec) Output {
	return r.outputs[spec.String()]
}

// Recorder wraps a Runner and remembers every output it returns.
type Recorder struct {
	next Runner

	mu       sync.Mutex
	captures map[string]Output
}

// NewRecorder wraps next.
func NewRecorder(next Runner) *Recorder {
	return &Recorder{next: next, captures: make(map[string]Output)}
}

func (r *Recorder) Run(ctx context.Context, spec Spec) Output {
	out := r.next.Run(ctx, spec)
	r.mu.Lock()
	r.captures[spec.String()] = out
	r.mu.Unlock()
	return out
}

// Captures returns the recorded outputs sorted by command line.
func (r *Recorder) Captures() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Capture, 0, len(r.captures))
	for cmd, o := range r.captures {
		out = append(out, Capture{Command: cmd, Output: o})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Save writes the captures as YAML, readable by LoadReplay.
func (r *Recorder) Save(path string) error {
	data, err := yaml.Marshal(captureFile{Captures: r.Captures()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
