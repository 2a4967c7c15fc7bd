package credential

import "testing"

func TestAccountKey_Format(t *testing.T) {
	got := AccountKey("main", "default", "apiToken")
	want := "main_default_apiToken"
	if got != want {
		t.Fatalf("AccountKey() = %q, want %q", got, want)
	}
}

func TestMemoryManager_SaveLoadDelete(t *testing.T) {
	ctx := t.Context()
	m := NewMemoryManager()

	if err := m.Save(ctx, "main_default_token", "s3cr3t"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := m.Load(ctx, "main_default_token")
	if err != nil || !ok {
		t.Fatalf("Load() = (%q, %v, %v), want (s3cr3t, true, nil)", got, ok, err)
	}
	if got != "s3cr3t" {
		t.Fatalf("Load() = %q, want %q", got, "s3cr3t")
	}

	if err := m.Delete(ctx, "main_default_token"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, ok, _ = m.Load(ctx, "main_default_token")
	if ok {
		t.Fatal("expected credential to be gone after Delete()")
	}
}

func TestMemoryManager_SaveRejectsEmptySecret(t *testing.T) {
	m := NewMemoryManager()
	err := m.Save(t.Context(), "main_default_token", "")
	if err != ErrMissingSecret {
		t.Fatalf("Save(empty) error = %v, want ErrMissingSecret", err)
	}
}

func TestMemoryManager_LoadMissingIsNotAnError(t *testing.T) {
	m := NewMemoryManager()
	_, ok, err := m.Load(t.Context(), "nope")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if ok {
		t.Fatal("Load() ok = true for a key that was never saved")
	}
}
