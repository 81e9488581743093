package api

import (
	"encoding/json"
	"sync"
)

// DebugLogListener receives each batch of events as it arrives
type DebugLogListener func(events []json.RawMessage)

// DebugLog collects server-side debug events delivered in the debug_log
// field of backend responses.
type DebugLog struct {
	mu        sync.Mutex
	events    []json.RawMessage
	listeners []DebugLogListener
}

// NewDebugLog creates an empty collector
func NewDebugLog() *DebugLog {
	return &DebugLog{}
}

// Extend appends events and notifies every listener
func (d *DebugLog) Extend(events []json.RawMessage) {
	if len(events) == 0 {
		return
	}

	d.mu.Lock()
	d.events = append(d.events, events...)
	listeners := append([]DebugLogListener(nil), d.listeners...)
	d.mu.Unlock()

	for _, l := range listeners {
		l(events)
	}
}

// AddListener registers a listener for future events
func (d *DebugLog) AddListener(l DebugLogListener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
}

// Events returns a copy of everything collected so far
func (d *DebugLog) Events() []json.RawMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]json.RawMessage(nil), d.events...)
}
