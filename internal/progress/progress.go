// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress delivers pipeline progress events to observers: log
// lines, in-memory recorders, terminal views, and a Kafka topic.
package progress

import (
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Observer receives progress events. Observe must not block for long; it
// runs on the pipeline goroutine, or on a writer goroutine for sections
// generated in parallel.
type Observer interface {
	Observe(types.ProgressEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(types.ProgressEvent)

// Observe calls f(e).
func (f ObserverFunc) Observe(e types.ProgressEvent) { f(e) }

// Emit delivers e to o. A nil observer is valid and ignores the event.
func Emit(o Observer, e types.ProgressEvent) {
	if o != nil {
		o.Observe(e)
	}
}

// Multi fans an event out to every observer in order.
type Multi []Observer

// Observe delivers e to each non-nil observer.
func (m Multi) Observe(e types.ProgressEvent) {
	for _, o := range m {
		Emit(o, e)
	}
}

// Join combines observers, dropping nils. It returns nil when none remain
// and the observer itself when only one does.
func Join(observers ...Observer) Observer {
	var m Multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

// Log returns an observer that writes each event as a structured log line.
func Log(logger *zap.Logger) Observer {
	return ObserverFunc(func(e types.ProgressEvent) {
		fields := []zap.Field{
			zap.String("phase", string(e.Phase)),
			zap.Duration("elapsed", e.Elapsed),
		}
		if e.Section != "" {
			fields = append(fields,
				zap.String("section", e.Section),
				zap.Int("current", e.Current),
				zap.Int("total", e.Total))
		}
		if e.Err != "" {
			logger.Error("pipeline failed", append(fields, zap.String("error", e.Err))...)
			return
		}
		logger.Info("pipeline progress", fields...)
	})
}

// Recorder keeps every event it observes. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

// Observe appends e.
func (r *Recorder) Observe(e types.ProgressEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []types.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.ProgressEvent(nil), r.events...)
}

// Last returns the most recent event and whether there was one.
func (r *Recorder) Last() (types.ProgressEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return types.ProgressEvent{}, false
	}
	return r.events[len(r.events)-1], true
}

// Phases returns the phase of each recorded event in order.
func (r *Recorder) Phases() []types.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Phase, len(r.events))
	for i, e := range r.events {
		out[i] = e.Phase
	}
	return out
}
