package events

import (
	"testing"

	"pgregory.net/rapid"
)

func TestEmitCallsHandlerWithEvent(t *testing.T) {
	b := New[string, int]()
	var got []int
	b.On("test", func(v int) { got = append(got, v) })

	if !b.Emit("test", 7) {
		t.Error("expected Emit to report a registered handler")
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("expected handler to receive [7], got %v", got)
	}
}

func TestEmitWithoutHandlers(t *testing.T) {
	var b Bus[string, int] // zero value must be usable
	if b.Emit("nothing", 1) {
		t.Error("expected Emit to report no handlers")
	}
	b.On("x", func(int) {})
	if b.Count("x") != 1 {
		t.Errorf("expected 1 handler on zero-value bus, got %d", b.Count("x"))
	}
}

func TestEmitOrderAndDuplicates(t *testing.T) {
	b := New[string, string]()
	var order []string
	first := func(string) { order = append(order, "first") }
	b.On("e", first)
	b.On("e", func(string) { order = append(order, "second") })
	b.On("e", first) // no de-duplication

	b.Emit("e", "")

	want := []string{"first", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestOffRemovesHandler(t *testing.T) {
	b := New[string, int]()
	calls := 0
	h := b.On("test", func(int) { calls++ })
	b.Off("test", h)
	b.Emit("test", 0)

	if calls != 0 {
		t.Errorf("expected removed handler not to run, ran %d times", calls)
	}
	if b.Count("test") != 0 {
		t.Errorf("expected 0 handlers after Off, got %d", b.Count("test"))
	}
}

func TestOffUnknownHandleIsNoop(t *testing.T) {
	b := New[string, int]()
	b.On("test", func(int) {})
	b.Off("test", Handle(999))
	b.Off("other", Handle(1))

	if b.Count("test") != 1 {
		t.Errorf("expected handler to survive unknown Off, got %d", b.Count("test"))
	}
}

func TestOnceRunsOnlyOnce(t *testing.T) {
	b := New[string, int]()
	calls := 0
	b.Once("test", func(int) { calls++ })

	b.Emit("test", 0)
	b.Emit("test", 0)

	if calls != 1 {
		t.Errorf("expected once handler to run 1 time, ran %d", calls)
	}
	if b.Count("test") != 0 {
		t.Errorf("expected once handler to be unregistered, %d remain", b.Count("test"))
	}
}

func TestOnceSurvivesRecursiveEmit(t *testing.T) {
	b := New[string, int]()
	calls := 0
	b.Once("test", func(depth int) {
		calls++
		if depth < 3 {
			b.Emit("test", depth+1)
		}
	})

	b.Emit("test", 0)

	if calls != 1 {
		t.Errorf("expected once handler to run 1 time under recursion, ran %d", calls)
	}
}

func TestEmitIgnoresOtherNames(t *testing.T) {
	b := New[string, int]()
	calls := 0
	b.On("foo", func(int) { calls++ })
	b.Emit("bar", 0)

	if calls != 0 {
		t.Errorf("expected handler for foo not to run on bar, ran %d", calls)
	}
}

func TestHandlerAddedDuringEmitWaitsForNextEmit(t *testing.T) {
	b := New[string, int]()
	late := 0
	b.On("e", func(int) {
		b.On("e", func(int) { late++ })
	})

	b.Emit("e", 0)
	if late != 0 {
		t.Errorf("expected late handler not to run in the emit that added it, ran %d", late)
	}
	b.Emit("e", 0)
	if late != 1 {
		t.Errorf("expected late handler to run on the next emit, ran %d", late)
	}
}

func TestHandlerRemovedDuringEmitIsSkipped(t *testing.T) {
	b := New[string, int]()
	var second Handle
	ran := false
	b.On("e", func(int) { b.Off("e", second) })
	second = b.On("e", func(int) { ran = true })

	b.Emit("e", 0)
	if ran {
		t.Error("expected handler removed mid-emit to be skipped")
	}
}

func TestPanickingHandlerAbortsDelivery(t *testing.T) {
	b := New[string, int]()
	after := false
	b.On("e", func(int) { panic("boom") })
	b.On("e", func(int) { after = true })

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate out of Emit")
			}
		}()
		b.Emit("e", 0)
	}()

	if after {
		t.Error("expected handlers after the panicking one not to run")
	}
}

func TestClear(t *testing.T) {
	b := New[string, int]()
	b.On("e", func(int) {})
	b.Once("e", func(int) {})
	b.Clear("e")

	if b.Emit("e", 0) {
		t.Error("expected no handlers after Clear")
	}
}

// TestBusMatchesModel drives random On/Once/Off/Emit sequences and checks the
// invocation counts against a plain-slice model.
func TestBusMatchesModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := New[int, int]()
		type reg struct {
			name   int
			handle Handle
			once   bool
			live   bool
		}
		var regs []*reg
		calls := map[Handle]int{}
		want := map[Handle]int{}

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			name := rapid.IntRange(0, 2).Draw(rt, "name")
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0, 1:
				once := rapid.Bool().Draw(rt, "once")
				r := &reg{name: name, once: once, live: true}
				fn := func(int) { calls[r.handle]++ }
				if once {
					r.handle = b.Once(name, fn)
				} else {
					r.handle = b.On(name, fn)
				}
				regs = append(regs, r)
			case 2:
				if len(regs) == 0 {
					continue
				}
				r := regs[rapid.IntRange(0, len(regs)-1).Draw(rt, "victim")]
				b.Off(r.name, r.handle)
				r.live = false
			case 3:
				registered := false
				for _, r := range regs {
					if r.name == name && r.live {
						registered = true
						want[r.handle]++
						if r.once {
							r.live = false
						}
					}
				}
				if got := b.Emit(name, 0); got != registered {
					rt.Fatalf("Emit(%d) = %v, want %v", name, got, registered)
				}
			}
		}

		for _, r := range regs {
			if calls[r.handle] != want[r.handle] {
				rt.Fatalf("handle %d: called %d times, want %d", r.handle, calls[r.handle], want[r.handle])
			}
		}
	})
}
