package probe

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecString(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"no args", Cmd("whoami"), "whoami"},
		{"args", Cmd("net", "user", "Guest"), "net user Guest"},
		{"powershell", PowerShell("Get-Service wuauserv"), "powershell -NoProfile -NonInteractive -Command Get-Service wuauserv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.String())
		})
	}
}

func TestOutputEmpty(t *testing.T) {
	assert.True(t, Output{}.Empty())
	assert.True(t, Output{Text: " \r\n\t", Succeeded: true}.Empty())
	assert.False(t, Output{Text: "State ON"}.Empty())
}

func TestExecRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}
	e := NewExec(2*time.Second, nil)
	ctx := context.Background()

	t.Run("captures stdout", func(t *testing.T) {
		out := e.Run(ctx, Cmd("echo", "hello", "world"))
		assert.True(t, out.Succeeded)
		assert.Equal(t, "hello world\n", out.Text)
	})

	t.Run("non-zero exit is a failed empty output", func(t *testing.T) {
		out := e.Run(ctx, Cmd("sh", "-c", "echo partial; exit 3"))
		assert.False(t, out.Succeeded)
		assert.Empty(t, out.Text)
	})

	t.Run("missing binary", func(t *testing.T) {
		out := e.Run(ctx, Cmd("definitely-not-a-real-binary-xyz"))
		assert.Equal(t, Output{}, out)
	})

	t.Run("empty command", func(t *testing.T) {
		assert.Equal(t, Output{}, e.Run(ctx, Spec{}))
	})

	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		out := e.Run(ctx, Spec{Command: "sleep", Args: []string{"5"}, Timeout: 100 * time.Millisecond})
		assert.Equal(t, Output{}, out)
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}

func TestRecorderAndReplay(t *testing.T) {
	fake := RunnerFunc(func(_ context.Context, spec Spec) Output {
		if spec.Command == "net" {
			return Output{Text: "Minimum password length 14\n", Succeeded: true}
		}
		return Output{}
	})
	rec := NewRecorder(fake)
	ctx := context.Background()

	rec.Run(ctx, Cmd("net", "accounts"))
	rec.Run(ctx, Cmd("wevtutil", "gl", "Security"))

	captures := rec.Captures()
	require.Len(t, captures, 2)
	assert.Equal(t, "net accounts", captures[0].Command)
	assert.Equal(t, "wevtutil gl Security", captures[1].Command)

	path := filepath.Join(t.TempDir(), "captures.yaml")
	require.NoError(t, rec.Save(path))

	replay, err := LoadReplay(path)
	require.NoError(t, err)

	out := replay.Run(ctx, Cmd("net", "accounts"))
	assert.True(t, out.Succeeded)
	assert.Equal(t, "Minimum password length 14\n", out.Text)

	assert.Equal(t, Output{}, replay.Run(ctx, Cmd("wevtutil", "gl", "Security")))
	assert.Equal(t, Output{}, replay.Run(ctx, Cmd("never", "captured")))
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplay(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
