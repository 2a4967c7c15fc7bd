package profile

import (
	"context"
	"strings"
	"testing"

	"github.com/cliforge/cmdcore/pkg/cmderror"
	"github.com/cliforge/cmdcore/pkg/credential"
)

// fakeSource is an in-memory bundleSource for tests, avoiding any touch
// of the real XDG config directory.
type fakeSource struct {
	bundles map[string]*RawProfile // "type:name" -> bundle
	reads   map[string]int         // "type:name" -> number of Read calls, for property 5
}

func newFakeSource() *fakeSource {
	return &fakeSource{bundles: map[string]*RawProfile{}, reads: map[string]int{}}
}

func (f *fakeSource) put(typ, name string, raw *RawProfile) {
	raw.Type, raw.Name = typ, name
	f.bundles[key(typ, name)] = raw
}

func (f *fakeSource) Read(_ context.Context, typ, name string) (*RawProfile, Source, error) {
	k := key(typ, name)
	f.reads[k]++
	raw, ok := f.bundles[k]
	if !ok {
		return nil, "", &notFoundErr{typ, name}
	}
	return raw, SourceLocal, nil
}

func (f *fakeSource) ListNames(typ string) ([]string, error) {
	var names []string
	for k := range f.bundles {
		if strings.HasPrefix(k, typ+":") {
			names = append(names, strings.TrimPrefix(k, typ+":"))
		}
	}
	return names, nil
}

type notFoundErr struct{ typ, name string }

func (e *notFoundErr) Error() string { return "profile not found: " + e.typ + ":" + e.name }

func newTestManager(src *fakeSource, cm credential.Manager) *Manager {
	return &Manager{
		store:      src,
		credential: cm,
		overrides:  nil,
		loading:    map[string]bool{},
		loaded:     map[string]*Profile{},
	}
}

// asRecord unwraps a returned error into its *cmderror.Record, failing
// the test if it isn't one.
func asRecord(t *testing.T, err error) *cmderror.Record {
	t.Helper()
	rec, ok := err.(*cmderror.Record)
	if !ok {
		t.Fatalf("error is not a *cmderror.Record: %v (%T)", err, err)
	}
	return rec
}

func TestManager_LoadResolvesDependenciesAndSecureFields(t *testing.T) {
	src := newFakeSource()
	src.put("db", "primary", &RawProfile{
		Fields:       map[string]any{"host": "db.internal"},
		SecureFields: []string{"password"},
	})
	src.put("service", "api", &RawProfile{
		Fields:       map[string]any{"region": "us-east-1"},
		Dependencies: []Dependency{{Type: "db", Name: "primary"}},
	})

	cm := credential.NewMemoryManager()
	ctx := t.Context()
	if err := cm.Save(ctx, credential.AccountKey("db", "primary", "password"), "hunter2"); err != nil {
		t.Fatalf("seed secret: %v", err)
	}

	mgr := newTestManager(src, cm)
	pm, err := mgr.Load(ctx, "service", "api")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if pm.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (service:api and db:primary)", pm.Len())
	}

	svc, ok := pm.GetNamed("service", "api")
	if !ok {
		t.Fatal("service:api not found in resolved map")
	}
	if svc.Fields["region"] != "us-east-1" {
		t.Fatalf("service:api fields = %v", svc.Fields)
	}

	db, ok := pm.GetNamed("db", "primary")
	if !ok {
		t.Fatal("db:primary not found in resolved map")
	}
	if db.SecureFields["password"] != "hunter2" {
		t.Fatalf("db:primary secure field = %v, want hunter2", db.SecureFields)
	}
}

func TestManager_MissingSecureFieldIsCredentialMissing(t *testing.T) {
	src := newFakeSource()
	src.put("db", "primary", &RawProfile{SecureFields: []string{"password"}})

	mgr := newTestManager(src, credential.NewMemoryManager())
	_, err := mgr.Load(t.Context(), "db", "primary")
	if err == nil {
		t.Fatal("expected an error for an unmaterialized secure field")
	}
	rec := asRecord(t, err)
	if rec.Kind != cmderror.KindPreparation || rec.Subkind != cmderror.SubkindCredentialMissing {
		t.Fatalf("got Kind/Subkind = %s/%s, want Preparation/CredentialMissing", rec.Kind, rec.Subkind)
	}
}

func TestManager_DependencyCycleIsDetectedWithPath(t *testing.T) {
	src := newFakeSource()
	src.put("a", "x", &RawProfile{Dependencies: []Dependency{{Type: "b", Name: "y"}}})
	src.put("b", "y", &RawProfile{Dependencies: []Dependency{{Type: "a", Name: "x"}}})

	mgr := newTestManager(src, credential.NewMemoryManager())
	_, err := mgr.Load(t.Context(), "a", "x")
	if err == nil {
		t.Fatal("expected a cycle error")
	}

	rec := asRecord(t, err)
	if rec.Kind != cmderror.KindPreparation || rec.Subkind != cmderror.SubkindProfileCycle {
		t.Fatalf("got Kind/Subkind = %s/%s, want Preparation/ProfileCycle at the top level", rec.Kind, rec.Subkind)
	}
	if !strings.Contains(rec.AdditionalDetails, "a:x") || !strings.Contains(rec.AdditionalDetails, "b:y") {
		t.Fatalf("cycle details = %q, want both a:x and b:y named", rec.AdditionalDetails)
	}
}

func TestManager_DependencyLoadFailureIsWrapped(t *testing.T) {
	src := newFakeSource()
	src.put("service", "api", &RawProfile{Dependencies: []Dependency{{Type: "db", Name: "missing"}}})

	mgr := newTestManager(src, credential.NewMemoryManager())
	_, err := mgr.Load(t.Context(), "service", "api")
	if err == nil {
		t.Fatal("expected a dependency failure")
	}
	rec := asRecord(t, err)
	if rec.Subkind != cmderror.SubkindDependencyFailed {
		t.Fatalf("Subkind = %s, want DependencyFailed", rec.Subkind)
	}
	if len(rec.CauseChain) == 0 {
		t.Fatal("expected the underlying ProfileMissing cause to be attached")
	}
}

// TestManager_LoadsEachDistinctProfileAtMostOnce is testable property 5:
// a profile referenced by two different dependents is only read from
// the store once per invocation.
func TestManager_LoadsEachDistinctProfileAtMostOnce(t *testing.T) {
	src := newFakeSource()
	src.put("shared", "common", &RawProfile{Fields: map[string]any{"k": "v"}})
	src.put("a", "x", &RawProfile{Dependencies: []Dependency{{Type: "shared", Name: "common"}}})
	src.put("b", "y", &RawProfile{Dependencies: []Dependency{{Type: "shared", Name: "common"}}})

	mgr := newTestManager(src, credential.NewMemoryManager())
	pm := NewProfileMap()
	ctx := t.Context()
	if err := mgr.load(ctx, "a", "x", pm); err != nil {
		t.Fatalf("load a:x: %v", err)
	}
	if err := mgr.load(ctx, "b", "y", pm); err != nil {
		t.Fatalf("load b:y: %v", err)
	}

	if got := src.reads[key("shared", "common")]; got != 1 {
		t.Fatalf("shared:common read %d times, want exactly 1", got)
	}
	if pm.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", pm.Len())
	}
}

// TestManager_DeterministicGivenDeterministicCredentialBackend is
// property 6: loading the same profile twice with the same in-memory
// credential backend produces field-for-field identical results.
func TestManager_DeterministicGivenDeterministicCredentialBackend(t *testing.T) {
	src := newFakeSource()
	src.put("db", "primary", &RawProfile{
		Fields:       map[string]any{"host": "db.internal"},
		SecureFields: []string{"password"},
	})
	cm := credential.NewMemoryManager()
	ctx := t.Context()
	if err := cm.Save(ctx, credential.AccountKey("db", "primary", "password"), "hunter2"); err != nil {
		t.Fatalf("seed secret: %v", err)
	}

	mgr1 := newTestManager(src, cm)
	pm1, err := mgr1.Load(ctx, "db", "primary")
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}

	mgr2 := newTestManager(src, cm)
	pm2, err := mgr2.Load(ctx, "db", "primary")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	p1, _ := pm1.GetNamed("db", "primary")
	p2, _ := pm2.GetNamed("db", "primary")
	if p1.Fields["host"] != p2.Fields["host"] || p1.SecureFields["password"] != p2.SecureFields["password"] {
		t.Fatalf("non-deterministic result across identical invocations: %+v vs %+v", p1, p2)
	}
}
