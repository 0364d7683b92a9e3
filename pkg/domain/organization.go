package domain

import "m3c/pkg/rdf"

// OrgType is the level of an organization in the affiliation chain.
type OrgType string

// Organization levels, outermost first.
const (
	OrgInstitute  OrgType = "institute"
	OrgDepartment OrgType = "department"
	OrgLaboratory OrgType = "laboratory"
)

var orgClasses = map[OrgType]string{
	OrgInstitute:  rdf.VIVOInstitute,
	OrgDepartment: rdf.VIVODepartment,
	OrgLaboratory: rdf.VIVOLaboratory,
}

// Organization is an institute, department or laboratory. ParentID is empty
// for roots.
type Organization struct {
	ID       string
	Name     string
	Type     OrgType
	ParentID string
}

// NewOrganization validates and returns an organization.
func NewOrganization(id, name string, typ OrgType, parentID string) (Organization, error) {
	if id == "" {
		return Organization{}, ErrMissingField{Entity: EntityOrganization, Field: "id"}
	}
	return Organization{ID: id, Name: name, Type: typ, ParentID: parentID}, nil
}

func (Organization) entity() {}

// EntityType implements Entity.
func (Organization) EntityType() EntityType { return EntityOrganization }

// URI returns the organization's URI.
func (o Organization) URI(namespace string) string { return OrganizationURI(namespace, o.ID) }

// Triples implements Entity.
func (o Organization) Triples(namespace string) []rdf.Statement {
	uri := o.URI(namespace)
	var out []rdf.Statement
	if class, ok := orgClasses[o.Type]; ok {
		out = append(out, rdf.Link(uri, rdf.Type, class))
	}
	out = append(out, rdf.Triple(uri, rdf.Label, rdf.String(o.Name)))
	if o.ParentID != "" {
		parent := OrganizationURI(namespace, o.ParentID)
		out = append(out,
			rdf.Link(uri, rdf.M3CHasParent, parent),
			rdf.Link(parent, rdf.M3CParentOf, uri),
		)
	}
	return out
}

// AssociationTriples links a person to the organization in both directions.
func (o Organization) AssociationTriples(namespace, personID string) []rdf.Statement {
	uri := o.URI(namespace)
	person := PersonURI(namespace, personID)
	return []rdf.Statement{
		rdf.Link(person, rdf.M3CAssociatedWith, uri),
		rdf.Link(uri, rdf.M3CAssociationFor, person),
	}
}
