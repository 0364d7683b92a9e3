// Package affiliation resolves free-text institute, department and laboratory
// names onto known organizations, honoring the parent chain.
package affiliation

import (
	"slices"

	"m3c/pkg/domain"
)

type indexKey struct {
	name string
	typ  domain.OrgType
}

// Index answers name lookups over the organizations loaded for one run. It
// is read-only once built.
type Index struct {
	byName map[indexKey][]domain.Organization
	byID   map[string]domain.Organization
}

// NewIndex indexes orgs by exact name and type. Load order is kept, so the
// first organization loaded wins ambiguous institute lookups.
func NewIndex(orgs []domain.Organization) *Index {
	x := &Index{
		byName: make(map[indexKey][]domain.Organization, len(orgs)),
		byID:   make(map[string]domain.Organization, len(orgs)),
	}
	for _, o := range orgs {
		k := indexKey{name: o.Name, typ: o.Type}
		x.byName[k] = append(x.byName[k], o)
		x.byID[o.ID] = o
	}
	return x
}

// Len is the number of indexed organizations.
func (x *Index) Len() int { return len(x.byID) }

// Get returns the organization with the given ID.
func (x *Index) Get(id string) (domain.Organization, bool) {
	o, ok := x.byID[id]
	return o, ok
}

// Institute returns the ID of the institute called name.
func (x *Index) Institute(name string) (string, bool) {
	matches := x.byName[indexKey{name: name, typ: domain.OrgInstitute}]
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].ID, true
}

// Children returns the IDs of every organization of type typ called name
// whose parent is one of parentIDs. Same-named siblings are all returned.
func (x *Index) Children(name string, typ domain.OrgType, parentIDs []string) ([]string, bool) {
	var ids []string
	for _, o := range x.byName[indexKey{name: name, typ: typ}] {
		if slices.Contains(parentIDs, o.ParentID) {
			ids = append(ids, o.ID)
		}
	}
	return ids, len(ids) > 0
}
