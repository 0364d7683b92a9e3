// Package domain defines the records rendered into the consortium graph and
// the deterministic URI scheme that identifies them across runs.
package domain

import (
	"fmt"

	"m3c/pkg/rdf"
)

// EntityType identifies the category of a rendered record.
type EntityType string

// Supported entity types.
const (
	EntityOrganization EntityType = "organization"
	EntityPerson       EntityType = "person"
	EntityProject      EntityType = "project"
	EntityStudy        EntityType = "study"
	EntityDataset      EntityType = "dataset"
	EntityPublication  EntityType = "publication"
	EntityTool         EntityType = "tool"
	EntityPhoto        EntityType = "photo"
)

// Entity is the closed set of renderable records. Triples is pure: it
// performs no lookups and returns the same statements for the same input.
type Entity interface {
	EntityType() EntityType
	Triples(namespace string) []rdf.Statement
	entity()
}

var (
	_ Entity = Organization{}
	_ Entity = Person{}
	_ Entity = (*Project)(nil)
	_ Entity = (*Study)(nil)
	_ Entity = Dataset{}
	_ Entity = (*Publication)(nil)
	_ Entity = (*Tool)(nil)
	_ Entity = Photo{}
)

// OrganizationURI mints the URI of an organization.
func OrganizationURI(namespace, id string) string { return namespace + "o" + id }

// PersonNNumber is the local name of a person within the namespace.
func PersonNNumber(id string) string { return "p" + id }

// PersonURI mints the URI of a person.
func PersonURI(namespace, id string) string { return namespace + PersonNNumber(id) }

// PublicationURI mints the URI of a publication.
func PublicationURI(namespace, pmid string) string { return namespace + "pmid" + pmid }

// WorkbenchURI mints the URI of a project, study or dataset, whose natural
// keys are already globally unique.
func WorkbenchURI(namespace, id string) string { return namespace + id }

// ErrMissingField reports a record lacking a mandatory attribute.
type ErrMissingField struct {
	Entity EntityType
	ID     string
	Field  string
}

func (e ErrMissingField) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: missing %s", e.Entity, e.Field)
	}
	return fmt.Sprintf("%s %s: missing %s", e.Entity, e.ID, e.Field)
}
