package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/cliforge/cmdcore/pkg/cmderror"
	"github.com/cliforge/cmdcore/pkg/credential"
	"github.com/spf13/viper"
)

// bundleSource is the subset of Store's behavior the Manager depends
// on. Satisfied by *Store; tests supply an in-memory fake instead of
// touching the real XDG config directory.
type bundleSource interface {
	Read(ctx context.Context, typ, name string) (*RawProfile, Source, error)
	ListNames(typ string) ([]string, error)
}

// Manager loads profiles by type, resolving dependencies and
// materializing secure fields (§4.D). One Manager serves a single
// invocation; ProfileMaps are never reused across invocations.
type Manager struct {
	store      bundleSource
	credential credential.Manager
	overrides  *viper.Viper // process flags / env, layered over bundle fields per invocation

	loading map[string]bool     // type:name currently on the DFS stack, for O(1) cycle detection
	stack   []string            // same set as loading, in DFS push order, for reporting the cycle path
	loaded  map[string]*Profile // type:name already resolved this invocation, for memoization
}

// NewManager constructs a Manager for a single invocation.
func NewManager(store *Store, cm credential.Manager, overrides *viper.Viper) *Manager {
	if overrides == nil {
		overrides = viper.New()
	}
	return &Manager{
		store:      store,
		credential: cm,
		overrides:  overrides,
		loading:    map[string]bool{},
		loaded:     map[string]*Profile{},
	}
}

// Load resolves a single named profile and everything it depends on,
// returning a ProfileMap containing the whole resolved set (§4.D).
func (m *Manager) Load(ctx context.Context, typ, name string) (*ProfileMap, error) {
	pm := NewProfileMap()
	if err := m.load(ctx, typ, name, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

// LoadDefault loads the single profile of typ that has no explicit
// name conflict — in this implementation, the profile literally named
// "default".
func (m *Manager) LoadDefault(ctx context.Context, typ string) (*ProfileMap, error) {
	return m.Load(ctx, typ, "default")
}

// LoadAll loads every profile of typ known to the store, each with its
// own dependency closure, merged into one ProfileMap.
func (m *Manager) LoadAll(ctx context.Context, typ string) (*ProfileMap, error) {
	names, err := m.store.ListNames(typ)
	if err != nil {
		return nil, cmderror.Wrap(cmderror.KindPreparation, cmderror.SubkindProfileMissing,
			fmt.Sprintf("failed to list profiles of type %q", typ), err)
	}

	pm := NewProfileMap()
	for _, name := range names {
		if err := m.load(ctx, typ, name, pm); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// load performs the depth-first, cycle-detecting, memoized dependency
// resolution described in §4.D steps 1-3.
func (m *Manager) load(ctx context.Context, typ, name string, pm *ProfileMap) error {
	k := key(typ, name)

	if existing, ok := m.loaded[k]; ok {
		pm.Add(existing)
		return nil
	}

	if m.loading[k] {
		return m.cycleError(typ, name)
	}
	m.loading[k] = true
	m.stack = append(m.stack, k)
	defer func() {
		delete(m.loading, k)
		m.stack = m.stack[:len(m.stack)-1]
	}()

	raw, source, err := m.store.Read(ctx, typ, name)
	if err != nil {
		return cmderror.Wrap(cmderror.KindPreparation, cmderror.SubkindProfileMissing,
			fmt.Sprintf("profile %s:%s could not be loaded", typ, name), err)
	}

	// Depth-first: load every dependency before materializing this
	// profile's own secure fields, so a failed dependency short-circuits
	// before we ever touch the credential backend for this node.
	for _, dep := range raw.Dependencies {
		if err := m.load(ctx, dep.Type, dep.Name, pm); err != nil {
			cause := errorRecord(err)
			// A cycle detected further down the DFS stack is the
			// top-level failure, not a plain dependency failure: rewrap
			// it at every level would bury the cycle path in the cause
			// chain instead of the top record's own details.
			if cause.Subkind == cmderror.SubkindProfileCycle {
				return cause
			}
			return cmderror.New(cmderror.KindPreparation, fmt.Sprintf("dependency %s:%s of profile %s:%s failed to load", dep.Type, dep.Name, typ, name)).
				WithSubkind(cmderror.SubkindDependencyFailed).
				WithCause(cause)
		}
	}

	p := &Profile{
		Name:         name,
		Type:         typ,
		Fields:       m.applyOverrides(typ, name, raw.Fields),
		SecureFields: map[string]string{},
		Dependencies: raw.Dependencies,
		Source:       source,
	}

	for _, field := range raw.SecureFields {
		account := credential.AccountKey(typ, name, field)
		secret, ok, err := m.credential.Load(ctx, account)
		if err != nil || !ok {
			rec := cmderror.New(cmderror.KindPreparation, fmt.Sprintf("secure field %q of profile %s:%s could not be retrieved", field, typ, name)).
				WithSubkind(cmderror.SubkindCredentialMissing)
			if err != nil {
				rec = rec.WithDetails(err.Error())
			}
			return rec
		}
		p.SecureFields[field] = secret
	}

	m.loaded[k] = p
	pm.Add(p)
	return nil
}

// cycleError builds a ProfileCycle error naming the DFS stack in push
// order followed by the profile that closes the cycle, which is exactly
// the cycle path (§4.D step 1, §8 scenario 4).
func (m *Manager) cycleError(typ, name string) error {
	path := make([]string, 0, len(m.stack)+1)
	path = append(path, m.stack...)
	path = append(path, key(typ, name))
	return cmderror.New(cmderror.KindPreparation, "profile dependency cycle detected").
		WithSubkind(cmderror.SubkindProfileCycle).
		WithDetails(strings.Join(path, " -> "))
}

// applyOverrides layers process flags / environment variables over a
// bundle's own fields, mirroring the teacher's config.Loader priority
// (ENV > flag > file) via a per-invocation viper.Viper scoped to
// "<type>.<name>.<field>".
func (m *Manager) applyOverrides(typ, name string, fields map[string]any) map[string]any {
	merged := make(map[string]any, len(fields))
	for k, v := range fields {
		merged[k] = v
	}
	if m.overrides == nil {
		return merged
	}
	prefix := typ + "." + name + "."
	for _, k := range m.overrides.AllKeys() {
		if strings.HasPrefix(k, prefix) {
			field := strings.TrimPrefix(k, prefix)
			merged[field] = m.overrides.Get(k)
		}
	}
	return merged
}

func errorRecord(err error) *cmderror.Record {
	if rec, ok := err.(*cmderror.Record); ok {
		return rec
	}
	return cmderror.New(cmderror.KindInternal, err.Error())
}
