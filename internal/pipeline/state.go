package pipeline

import (
	"m3c/internal/affiliation"
	"m3c/internal/identity"
	"m3c/pkg/domain"
)

// State holds everything one run has loaded and built. It is owned by a
// single Run call.
type State struct {
	Organizations []domain.Organization
	Index         *affiliation.Index
	Resolver      *affiliation.Resolver

	Visible  []domain.Person
	Withheld []domain.Person
	// Investigators resolves PIs and runners among visible people.
	Investigators *identity.Matcher
	// Authors resolves tool authors among all people.
	Authors *identity.Matcher

	Photos       []domain.Photo
	Publications []*domain.Publication
	Tools        []*domain.Tool

	Projects     map[string]*domain.Project
	ProjectOrder []string
	Studies      map[string]*domain.Study
	StudyOrder   []string
	Datasets     []domain.Dataset
}

func newState() *State {
	return &State{
		Projects: make(map[string]*domain.Project),
		Studies:  make(map[string]*domain.Study),
	}
}

// setOrganizations indexes the organizations for affiliation lookups.
func (s *State) setOrganizations(orgs []domain.Organization) {
	s.Organizations = orgs
	s.Index = affiliation.NewIndex(orgs)
	s.Resolver = affiliation.NewResolver(s.Index)
}

// setPeople splits people by visibility and builds both matchers.
func (s *State) setPeople(people []domain.Person) {
	for _, p := range people {
		if p.Withheld {
			s.Withheld = append(s.Withheld, p)
		} else {
			s.Visible = append(s.Visible, p)
		}
	}
	s.Investigators = identity.NewMatcher(s.Visible)
	s.Authors = identity.NewMatcher(s.Visible, s.Withheld)
}

func (s *State) addProject(p *domain.Project) {
	if _, dup := s.Projects[p.ID]; !dup {
		s.ProjectOrder = append(s.ProjectOrder, p.ID)
	}
	s.Projects[p.ID] = p
}

func (s *State) addStudy(st *domain.Study) {
	if _, dup := s.Studies[st.ID]; !dup {
		s.StudyOrder = append(s.StudyOrder, st.ID)
	}
	s.Studies[st.ID] = st
}
