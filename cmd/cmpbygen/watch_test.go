package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name   string
		ev     fsnotify.Event
		suffix string
		want   bool
	}{
		{"write", fsnotify.Event{Name: "model/entry.go", Op: fsnotify.Write}, "", true},
		{"create", fsnotify.Event{Name: "model/entry.go", Op: fsnotify.Create}, "", true},
		{"remove", fsnotify.Event{Name: "model/entry.go", Op: fsnotify.Remove}, "", true},
		{"rename", fsnotify.Event{Name: "model/entry.go", Op: fsnotify.Rename}, "", true},
		{"chmod", fsnotify.Event{Name: "model/entry.go", Op: fsnotify.Chmod}, "", false},
		{"not go", fsnotify.Event{Name: "model/README.md", Op: fsnotify.Write}, "", false},
		{"test file", fsnotify.Event{Name: "model/entry_test.go", Op: fsnotify.Write}, "", false},
		{"generated", fsnotify.Event{Name: "model/model_cmpby.go", Op: fsnotify.Write}, "", false},
		{"custom suffix", fsnotify.Event{Name: "model/model.gen.go", Op: fsnotify.Write}, ".gen.go", false},
		{"default suffix with custom", fsnotify.Event{Name: "model/model_cmpby.go", Op: fsnotify.Write}, ".gen.go", true},
		{"editor swap", fsnotify.Event{Name: "model/.entry.go", Op: fsnotify.Write}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev, tt.suffix))
		})
	}
}

func TestWatchLoop(t *testing.T) {
	const debounce = 20 * time.Millisecond
	errStop := errors.New("stop")

	t.Run("one regeneration per burst", func(t *testing.T) {
		events := make(chan fsnotify.Event, 4)
		for _, name := range []string{"a.go", "b.go", "a.go"} {
			events <- fsnotify.Event{Name: name, Op: fsnotify.Write}
		}
		events <- fsnotify.Event{Name: "a_test.go", Op: fsnotify.Write}
		calls := 0
		err := watchLoop(context.Background(), events, nil, debounce, "", zap.NewNop(), func() error {
			calls++
			return errStop
		})
		assert.ErrorIs(t, err, errStop)
		assert.Equal(t, 1, calls)
	})

	t.Run("irrelevant events are ignored", func(t *testing.T) {
		events := make(chan fsnotify.Event, 2)
		events <- fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}
		events <- fsnotify.Event{Name: "x_cmpby.go", Op: fsnotify.Create}
		close(events)
		calls := 0
		err := watchLoop(context.Background(), events, nil, debounce, "", zap.NewNop(), func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Zero(t, calls)
	})

	t.Run("watch errors are logged", func(t *testing.T) {
		errs := make(chan error, 1)
		errs <- errors.New("overflow")
		close(errs)
		err := watchLoop(context.Background(), nil, errs, debounce, "", zap.NewNop(), func() error { return nil })
		assert.NoError(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := watchLoop(ctx, make(chan fsnotify.Event), make(chan error), debounce, "", zap.NewNop(), func() error { return errStop })
		assert.NoError(t, err)
	})
}
