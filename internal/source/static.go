package source

import (
	"context"

	"m3c/pkg/domain"
)

// Static is a Source over records held in memory, for local runs from
// exported fixtures and for tests.
type Static struct {
	Orgs        []domain.Organization
	Persons     []domain.Person
	Assocs      []Association
	Pubs        []PublicationRecord
	Authors     map[string][]string
	Overrides   []PublicationOverride
	ProjectRows []ProjectRecord
	StudyRows   []StudyRecord
	DatasetRows []DatasetRecord
}

var _ Source = (*Static)(nil)

// Organizations implements Source.
func (s *Static) Organizations(context.Context) ([]domain.Organization, error) { return s.Orgs, nil }

// People implements Source.
func (s *Static) People(context.Context) ([]domain.Person, error) { return s.Persons, nil }

// Associations implements Source.
func (s *Static) Associations(context.Context) ([]Association, error) { return s.Assocs, nil }

// Publications implements Source.
func (s *Static) Publications(context.Context) ([]PublicationRecord, error) { return s.Pubs, nil }

// Authorships implements Source.
func (s *Static) Authorships(context.Context) (map[string][]string, error) { return s.Authors, nil }

// PublicationOverrides implements Source.
func (s *Static) PublicationOverrides(context.Context) ([]PublicationOverride, error) {
	return s.Overrides, nil
}

// Projects implements Source.
func (s *Static) Projects(context.Context) ([]ProjectRecord, error) { return s.ProjectRows, nil }

// Studies implements Source.
func (s *Static) Studies(context.Context) ([]StudyRecord, error) { return s.StudyRows, nil }

// Datasets implements Source.
func (s *Static) Datasets(context.Context) ([]DatasetRecord, error) { return s.DatasetRows, nil }
