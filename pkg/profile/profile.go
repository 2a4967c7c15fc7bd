// Package profile implements the Profile Store & Manager (§4.D):
// loading named, typed configuration bundles with dependency ordering
// and materializing secure fields through the Credential Manager.
package profile

import "fmt"

// Source distinguishes where a profile bundle was loaded from (§3
// supplement).
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Dependency is a reference from one profile to another it needs
// loaded first.
type Dependency struct {
	Type string
	Name string
}

// Profile is a named, typed configuration bundle (§3). Fields marked
// secure are never read from the bundle's own Fields: the bundle lists
// their names, and Manager.Load materializes each one from the
// Credential Manager into SecureFields, a separate, still read-only
// map.
type Profile struct {
	Name         string
	Type         string
	Fields       map[string]any
	SecureFields map[string]string // field name -> materialized secret value
	Dependencies []Dependency
	Source       Source
}

// key uniquely identifies a profile within an invocation's ProfileMap.
func key(typ, name string) string { return typ + ":" + name }

// ProfileMap is the per-invocation, read-only view built by the
// Manager and handed to a handler (§3). Handlers must not mutate it.
type ProfileMap struct {
	byKey  map[string]*Profile
	byType map[string][]*Profile
}

// NewProfileMap returns an empty ProfileMap.
func NewProfileMap() *ProfileMap {
	return &ProfileMap{byKey: map[string]*Profile{}, byType: map[string][]*Profile{}}
}

// Add registers p into the map. Adding the same type:name twice
// replaces the earlier entry without duplicating it in byType.
func (m *ProfileMap) Add(p *Profile) {
	k := key(p.Type, p.Name)
	if _, exists := m.byKey[k]; !exists {
		m.byType[p.Type] = append(m.byType[p.Type], p)
	}
	m.byKey[k] = p
}

// Get returns the profile of the given type (when only one is loaded)
// or, when typeAndName contains a colon, the specific "type:name"
// profile (§3 ProfileMap.get overloads).
func (m *ProfileMap) Get(typeOrTypeAndName string) (*Profile, bool) {
	if p, ok := m.byKey[typeOrTypeAndName]; ok {
		return p, true
	}
	all := m.byType[typeOrTypeAndName]
	if len(all) == 1 {
		return all[0], true
	}
	return nil, false
}

// GetNamed returns the profile with the given type and name.
func (m *ProfileMap) GetNamed(typ, name string) (*Profile, bool) {
	p, ok := m.byKey[key(typ, name)]
	return p, ok
}

// GetAll returns every loaded profile of the given type.
func (m *ProfileMap) GetAll(typ string) []*Profile {
	return append([]*Profile{}, m.byType[typ]...)
}

// Len reports how many distinct profiles are loaded.
func (m *ProfileMap) Len() int { return len(m.byKey) }

// All returns every profile loaded into the map, in no particular
// order. Used to merge one invocation's resolved dependency closure
// into a combined map spanning several required/optional profile
// types.
func (m *ProfileMap) All() []*Profile {
	out := make([]*Profile, 0, len(m.byKey))
	for _, p := range m.byKey {
		out = append(out, p)
	}
	return out
}

func (p *Profile) String() string {
	return fmt.Sprintf("%s:%s", p.Type, p.Name)
}
