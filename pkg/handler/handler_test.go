package handler

import "testing"

type noopHandler struct{ calls *int }

func (h *noopHandler) Process(Params) error {
	*h.calls++
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	calls := 0
	if err := r.Register("greet", func() Handler { return &noopHandler{calls: &calls} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	h, ok := r.Get("greet")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if err := h.Process(Params{}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRegistry_GetUnknownReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Fatal("Get() ok = true for an unregistered name")
	}
}

func TestRegistry_DuplicateRegistrationIsRejected(t *testing.T) {
	r := NewRegistry()
	factory := func() Handler { return &noopHandler{calls: new(int)} }
	if err := r.Register("greet", factory); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := r.Register("greet", factory); err == nil {
		t.Fatal("expected an error registering a duplicate name")
	}
}

func TestRegistry_FactoryProducesFreshInstancePerCall(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("counter", func() Handler { return &noopHandler{calls: new(int)} })

	h1, _ := r.Get("counter")
	h2, _ := r.Get("counter")
	_ = h1.Process(Params{})
	_ = h1.Process(Params{})
	_ = h2.Process(Params{})

	if h1.(*noopHandler).calls == h2.(*noopHandler).calls {
		t.Fatal("Get() returned handlers sharing state; each call must produce a fresh instance")
	}
	if *h1.(*noopHandler).calls != 2 || *h2.(*noopHandler).calls != 1 {
		t.Fatalf("call counts = %d, %d, want 2, 1", *h1.(*noopHandler).calls, *h2.(*noopHandler).calls)
	}
}
