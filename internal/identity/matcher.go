// Package identity matches free-text names onto known people.
package identity

import (
	"fmt"
	"strings"

	"m3c/internal/failure"
	"m3c/pkg/domain"
)

type fullName struct{ first, last string }

// Matcher resolves names over the groups of people it was built from.
type Matcher struct {
	byDisplay map[string]string
	byName    map[fullName]string
}

// NewMatcher indexes people by display name and by first/last name. When two
// people share a name the first one wins.
func NewMatcher(people ...[]domain.Person) *Matcher {
	m := &Matcher{
		byDisplay: make(map[string]string),
		byName:    make(map[fullName]string),
	}
	for _, group := range people {
		for _, p := range group {
			if _, dup := m.byDisplay[p.Name()]; !dup {
				m.byDisplay[p.Name()] = p.ID
			}
			k := fullName{first: p.FirstName, last: p.LastName}
			if _, dup := m.byName[k]; !dup {
				m.byName[k] = p.ID
			}
		}
	}
	return m
}

// ByDisplayName returns the person whose display name is exactly name.
func (m *Matcher) ByDisplayName(name string) (string, bool) {
	id, ok := m.byDisplay[name]
	return id, ok
}

// ByName returns the person with the given first and last name.
func (m *Matcher) ByName(first, last string) (string, bool) {
	id, ok := m.byName[fullName{first: first, last: last}]
	return id, ok
}

// MatchToolAuthors fills in the URI of every author it can resolve and
// returns the names of those it cannot.
func (m *Matcher) MatchToolAuthors(namespace string, tool *domain.Tool) []string {
	var unmatched []string
	for i, a := range tool.Authors {
		if a.URI != "" {
			continue
		}
		id, ok := m.ByDisplayName(a.Name)
		if !ok {
			unmatched = append(unmatched, a.Name)
			continue
		}
		tool.Authors[i].URI = domain.PersonURI(namespace, id)
	}
	return unmatched
}

// ErrUnknownPerson reports a PI or runner that matches nobody.
type ErrUnknownPerson struct {
	Owner     domain.EntityType
	OwnerID   string
	Role      string
	FirstName string
	LastName  string
}

func (e ErrUnknownPerson) Error() string {
	return fmt.Sprintf("%s %s: %s %q %q does not exist", e.Owner, e.OwnerID, e.Role, e.FirstName, e.LastName)
}

// ResolveNames resolves the parallel semicolon-delimited last and first name
// columns of a project or study row. Any name that does not resolve aborts
// the run.
func (m *Matcher) ResolveNames(owner domain.EntityType, ownerID, role, lastNames, firstNames string) ([]string, error) {
	lasts := split(lastNames)
	firsts := split(firstNames)
	ids := make([]string, 0, len(lasts))
	for i, last := range lasts {
		var first string
		if i < len(firsts) {
			first = firsts[i]
		}
		id, ok := m.ByName(first, last)
		if !ok {
			var err error = ErrUnknownPerson{Owner: owner, OwnerID: ownerID, Role: role, FirstName: first, LastName: last}
			err = failure.WithDetail(err, fmt.Sprintf("%s=%s %s=%q", owner, ownerID, role, strings.TrimSpace(first+" "+last)))
			return nil, failure.Fatal(err, "add the person to the people table or correct the name on the Workbench record")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func split(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
