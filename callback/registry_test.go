package callback

import "testing"

// recordingCallback accumulates the traffic it observes, mirroring what a
// real allocation counter does with the notifications.
type recordingCallback struct {
	current int
	peak    int
	allocs  int
	frees   int
}

func (c *recordingCallback) OnAlloc(bytes int) {
	c.current += bytes
	if c.current > c.peak {
		c.peak = c.current
	}
	c.allocs++
}

func (c *recordingCallback) OnFree(bytes int) {
	c.current -= bytes
	c.frees++
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	cb := &recordingCallback{}

	t.Run("register adds the callback once", func(t *testing.T) {
		r.Register(cb)
		r.Register(cb)
		if got := r.Len(); got != 1 {
			t.Errorf("Len() = %d after double registration, want 1", got)
		}
		if !r.Registered(cb) {
			t.Error("Registered() = false, want true")
		}
	})

	t.Run("unregister removes the callback", func(t *testing.T) {
		r.Unregister(cb)
		if r.Registered(cb) {
			t.Error("Registered() = true after Unregister, want false")
		}
	})

	t.Run("unregister of an absent callback is a no-op", func(t *testing.T) {
		r.Unregister(&recordingCallback{})
		if got := r.Len(); got != 0 {
			t.Errorf("Len() = %d, want 0", got)
		}
	})
}

func TestRegistry_Notify(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	cb := &recordingCallback{}
	r.Register(cb)

	r.NotifyAlloc(1024)
	if cb.current != 1024 || cb.peak != 1024 {
		t.Errorf("after alloc: current = %d, peak = %d, want 1024, 1024", cb.current, cb.peak)
	}

	r.NotifyFree(1024)
	if cb.current != 0 {
		t.Errorf("after free: current = %d, want 0", cb.current)
	}
	if cb.peak != 1024 {
		t.Errorf("after free: peak = %d, want 1024", cb.peak)
	}
}

// TestRegistry_MultipleObservers verifies that every callback sees all
// traffic that occurs while it is registered, independent of when the
// others registered. An observer registered mid-stream may therefore see a
// free without the matching allocation.
func TestRegistry_MultipleObservers(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first := &recordingCallback{}
	r.Register(first)
	r.NotifyAlloc(1024)

	second := &recordingCallback{}
	r.Register(second)
	r.NotifyAlloc(1024)
	r.NotifyFree(1024)
	r.NotifyFree(1024)
	r.Unregister(second)

	if first.current != 0 {
		t.Errorf("first.current = %d, want 0", first.current)
	}
	if first.peak != 2048 {
		t.Errorf("first.peak = %d, want 2048", first.peak)
	}
	if second.frees != 2 {
		t.Errorf("second.frees = %d, want 2 (observers see all traffic, not just their own blocks)", second.frees)
	}
	if second.current != -1024 {
		t.Errorf("second.current = %d, want -1024 (started mid-stream)", second.current)
	}
}

// mutatingCallback unregisters itself when notified, exercising registry
// mutation from inside a notification handler.
type mutatingCallback struct {
	registry *Registry
	fired    int
}

func (c *mutatingCallback) OnAlloc(int) {
	c.fired++
	c.registry.Unregister(c)
}

func (c *mutatingCallback) OnFree(int) {}

func TestRegistry_GuardSuppressesNotifications(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	t.Run("notifications are dropped while the guard is held", func(t *testing.T) {
		cb := &recordingCallback{}
		r.Register(cb)
		release := r.enterCritical()
		r.NotifyAlloc(512)
		r.NotifyFree(512)
		release()
		if cb.allocs != 0 || cb.frees != 0 {
			t.Errorf("observed %d allocs, %d frees during critical section, want 0, 0", cb.allocs, cb.frees)
		}
		r.NotifyAlloc(256)
		if cb.allocs != 1 {
			t.Errorf("allocs = %d after guard released, want 1", cb.allocs)
		}
		r.Unregister(cb)
	})

	t.Run("guard is cleared after registry mutation", func(t *testing.T) {
		cb := &recordingCallback{}
		r.Register(cb)
		r.NotifyAlloc(128)
		if cb.allocs != 1 {
			t.Errorf("allocs = %d after Register returned, want 1", cb.allocs)
		}
		r.Unregister(cb)
	})

	t.Run("handler may mutate the registry without recursing", func(t *testing.T) {
		cb := &mutatingCallback{registry: r}
		r.Register(cb)
		r.NotifyAlloc(64)
		if cb.fired != 1 {
			t.Errorf("fired = %d, want 1", cb.fired)
		}
		if r.Registered(cb) {
			t.Error("callback should have unregistered itself")
		}
	})
}

func TestDefault_IsStable(t *testing.T) {
	t.Parallel()

	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Default() != Default() {
		t.Error("Default() should return the same registry on every call")
	}
}
