package lifecycle

import "testing"

func TestBinder_ForwardsTransitions(t *testing.T) {
	b := NewBinder()

	var fg, bg int
	b.Bind(Hooks{
		OnForeground: func() { fg++ },
		OnBackground: func() { bg++ },
	})

	b.HandleBackground()
	b.HandleForeground()
	b.HandleForeground()

	if bg != 1 || fg != 2 {
		t.Errorf("fg = %d, bg = %d, want 2, 1", fg, bg)
	}
}

func TestBinder_DefaultsForeground(t *testing.T) {
	b := NewBinder()
	if !b.Foreground() {
		t.Error("fresh binder should report foreground")
	}

	b.HandleBackground()
	if b.Foreground() {
		t.Error("should report background after HandleBackground")
	}
	b.HandleForeground()
	if !b.Foreground() {
		t.Error("should report foreground after HandleForeground")
	}
}

func TestBinder_RebindReplaces(t *testing.T) {
	b := NewBinder()

	var first, second int
	b.Bind(Hooks{OnForeground: func() { first++ }})
	b.Bind(Hooks{OnForeground: func() { second++ }})

	b.HandleForeground()
	if first != 0 {
		t.Error("replaced hook must not fire")
	}
	if second != 1 {
		t.Error("current hook must fire")
	}
}

func TestBinder_TracksWithoutHooks(t *testing.T) {
	b := NewBinder()
	b.HandleBackground() // no hooks bound; must not panic
	if b.Foreground() {
		t.Error("state must be tracked even without hooks")
	}

	b.Bind(Hooks{OnBackground: func() {}})
	b.Unbind()
	b.HandleForeground()
	if !b.Foreground() {
		t.Error("state must be tracked after Unbind")
	}
}
