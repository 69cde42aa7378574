package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTargets(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "directory is walked",
			paths: []string{"testdata"},
			want:  []string{"testdata", filepath.Join("testdata", "broken"), filepath.Join("testdata", "problems")},
		},
		{
			name:  "file watches its parent",
			paths: []string{"testdata/problems/toggle.json"},
			want:  []string{filepath.Join("testdata", "problems")},
		},
		{
			name:  "duplicates collapse",
			paths: []string{"testdata/problems/toggle.json", "testdata/problems/arbiter.cue"},
			want:  []string{filepath.Join("testdata", "problems")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := watchTargets(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchTargetsMissingPath(t *testing.T) {
	_, err := watchTargets([]string{"testdata/nonexistent"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, errorCode(err))
}

func TestIsProblemChange(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "a.yaml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a.CUE", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "a.json", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "a.yml", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "a.yaml", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, isProblemChange(tt.event))
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchLoopReruns(t *testing.T) {
	events := make(chan fsnotify.Event, 4)
	events <- fsnotify.Event{Name: "a.yaml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "a.yaml", Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "b.cue", Op: fsnotify.Create}
	close(events)

	var changed []string
	err := watchLoop(context.Background(), events, nil, discardLogger(), func(name string) {
		changed = append(changed, name)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.cue"}, changed)
}

func TestWatchLoopSurvivesWatcherErrors(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)

	done := make(chan error, 1)
	var changed []string
	go func() {
		done <- watchLoop(context.Background(), events, errs, discardLogger(), func(name string) {
			changed = append(changed, name)
		})
	}()

	errs <- errors.New("queue overflow")
	events <- fsnotify.Event{Name: "a.yaml", Op: fsnotify.Write}
	close(events)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"a.yaml"}, changed)
}

func TestWatchLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := watchLoop(ctx, make(chan fsnotify.Event), make(chan error), discardLogger(), func(string) {
		calls++
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}
