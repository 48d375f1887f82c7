package checks

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

func TestPreflight(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	err := Preflight(context.Background(), fakeProbe{}, "linux", logger)
	assert.ErrorIs(t, err, engine.ErrUnsupportedPlatform)

	err = Preflight(context.Background(), fakeProbe{}, "windows", logger)
	assert.ErrorIs(t, err, engine.ErrPrivilege)

	admin := fakeProbe{netSession.String(): "There are no entries in the list."}
	assert.NoError(t, Preflight(context.Background(), admin, "windows", logger))
}

func TestPreflightInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	admin := fakeProbe{netSession.String(): "There are no entries in the list."}
	err := Preflight(ctx, admin, "windows", slog.Default())
	assert.ErrorIs(t, err, engine.ErrInterrupted)
	assert.NotErrorIs(t, err, engine.ErrPrivilege)
}

func TestPreflightInterruptedDuringProbe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := probe.RunnerFunc(func(context.Context, probe.Spec) probe.Output {
		cancel()
		return probe.Output{}
	})

	err := Preflight(ctx, cancelling, "windows", slog.Default())
	assert.ErrorIs(t, err, engine.ErrInterrupted)
}
