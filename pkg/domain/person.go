package domain

import "m3c/pkg/rdf"

// Person is a consortium member. Withheld people are never rendered but
// remain eligible for author matching.
type Person struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
	Phone       string
	Withheld    bool
}

// NewPerson validates the mandatory name parts and returns a person.
func NewPerson(id, first, last string) (Person, error) {
	switch {
	case id == "":
		return Person{}, ErrMissingField{Entity: EntityPerson, Field: "id"}
	case first == "":
		return Person{}, ErrMissingField{Entity: EntityPerson, ID: id, Field: "first_name"}
	case last == "":
		return Person{}, ErrMissingField{Entity: EntityPerson, ID: id, Field: "last_name"}
	}
	return Person{ID: id, FirstName: first, LastName: last}, nil
}

func (Person) entity() {}

// EntityType implements Entity.
func (Person) EntityType() EntityType { return EntityPerson }

// URI returns the person's URI.
func (p Person) URI(namespace string) string { return PersonURI(namespace, p.ID) }

// Name is the display name, falling back to "first last".
func (p Person) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.FirstName + " " + p.LastName
}

// Triples implements Entity.
func (p Person) Triples(namespace string) []rdf.Statement {
	uri := p.URI(namespace)
	vcard := uri + "vcard"
	name := vcard + "name"
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.FOAFPerson),
		rdf.Triple(uri, rdf.Label, rdf.String(p.Name())),
		rdf.Link(uri, rdf.OBOContactInfo, vcard),
		rdf.Link(vcard, rdf.OBOContactInfoOf, uri),
		rdf.Link(vcard, rdf.VCardHasName, name),
		rdf.Link(name, rdf.Type, rdf.VCardName),
		rdf.Triple(vcard, rdf.VCardFamilyName, rdf.String(p.LastName)),
		rdf.Triple(vcard, rdf.VCardGivenName, rdf.String(p.FirstName)),
	}
	if p.Email != "" {
		email := vcard + "email"
		out = append(out,
			rdf.Link(vcard, rdf.VCardHasEmail, email),
			rdf.Link(email, rdf.Type, rdf.VCardEmail),
			rdf.Link(email, rdf.Type, rdf.VCardWork),
			rdf.Triple(email, rdf.VCardEmailAddr, rdf.String(p.Email)),
		)
	}
	if p.Phone != "" {
		phone := vcard + "phone"
		out = append(out,
			rdf.Link(vcard, rdf.VCardHasPhone, phone),
			rdf.Link(phone, rdf.Type, rdf.VCardTelephone),
			rdf.Triple(phone, rdf.VCardPhone, rdf.String(p.Phone)),
		)
	}
	return out
}
