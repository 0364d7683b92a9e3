// Package source reads the records the graph is built from. Workbench
// projects, studies and datasets come from the Metabolomics Workbench
// database; people, organizations and publications come from the
// supplemental consortium database.
package source

import (
	"context"

	"m3c/pkg/domain"
)

// Association links a person to an organization.
type Association struct {
	PersonID       string
	OrganizationID string
}

// PublicationRecord is a stored PubMed efetch document.
type PublicationRecord struct {
	PMID string
	XML  []byte
}

// PublicationOverride is a curator's correction to one person's PubMed
// search results. Include adds the PMID; otherwise the PMID is removed.
type PublicationOverride struct {
	PMID     string
	PersonID string
	Include  bool
}

// ProjectRecord is a raw Workbench project row. Names and affiliations are
// parallel semicolon-delimited lists.
type ProjectRecord struct {
	ID            string
	Title         string
	Type          string
	Summary       string
	DOI           string
	FundingSource string
	LastNames     string
	FirstNames    string
	Institutes    string
	Departments   string
	Labs          string
}

// StudyRecord is a raw Workbench study row.
type StudyRecord struct {
	ID          string
	Title       string
	Type        string
	Summary     string
	SubmitDate  string // YYYY-MM-DD or empty
	ProjectID   string
	LastNames   string
	FirstNames  string
	Institutes  string
	Departments string
	Labs        string
}

// DatasetRecord is a Workbench sample with its subject species.
type DatasetRecord struct {
	SampleID string
	StudyID  string
	Species  string
}

// Source is the read side of both databases. Withheld organizations and
// associations to withheld records are filtered out; withheld people are
// returned flagged.
type Source interface {
	Organizations(ctx context.Context) ([]domain.Organization, error)
	People(ctx context.Context) ([]domain.Person, error)
	Associations(ctx context.Context) ([]Association, error)
	Publications(ctx context.Context) ([]PublicationRecord, error)
	// Authorships maps a PMID to the IDs of its consortium authors.
	Authorships(ctx context.Context) (map[string][]string, error)
	PublicationOverrides(ctx context.Context) ([]PublicationOverride, error)
	Projects(ctx context.Context) ([]ProjectRecord, error)
	Studies(ctx context.Context) ([]StudyRecord, error)
	Datasets(ctx context.Context) ([]DatasetRecord, error)
}
