// Package lifecycle translates host application lifecycle transitions into
// the coordinator's foreground and background hooks.
package lifecycle

import "sync"

// Hooks receive lifecycle transitions. Either func may be nil.
type Hooks struct {
	OnForeground func()
	OnBackground func()
}

// Binder tracks the host's foreground state and forwards transitions to the
// currently bound hooks. Binding is idempotent: rebinding replaces the
// prior binding. The zero state is foreground, matching a freshly launched
// app.
type Binder struct {
	mu         sync.Mutex
	hooks      Hooks
	background bool
}

// NewBinder creates a binder in the foreground state with no hooks bound.
func NewBinder() *Binder {
	return &Binder{}
}

// Bind replaces the bound hooks.
func (b *Binder) Bind(h Hooks) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = h
}

// Unbind removes the bound hooks. Transitions are still tracked.
func (b *Binder) Unbind() {
	b.Bind(Hooks{})
}

// HandleForeground records the transition and notifies the bound hook.
func (b *Binder) HandleForeground() {
	b.mu.Lock()
	b.background = false
	hook := b.hooks.OnForeground
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// HandleBackground records the transition and notifies the bound hook.
func (b *Binder) HandleBackground() {
	b.mu.Lock()
	b.background = true
	hook := b.hooks.OnBackground
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Foreground reports the last observed lifecycle state.
func (b *Binder) Foreground() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.background
}
