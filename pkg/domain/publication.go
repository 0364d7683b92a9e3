package domain

import "m3c/pkg/rdf"

// Publication is a PubMed article. Authors holds the IDs of the consortium
// people credited with it.
type Publication struct {
	PMID     string
	Title    string
	Year     string
	DOI      string
	Citation string
	Authors  []string
}

func (*Publication) entity() {}

// EntityType implements Entity.
func (*Publication) EntityType() EntityType { return EntityPublication }

// URI returns the publication's URI.
func (p *Publication) URI(namespace string) string { return PublicationURI(namespace, p.PMID) }

// AddAuthor credits a person once.
func (p *Publication) AddAuthor(personID string) {
	for _, existing := range p.Authors {
		if existing == personID {
			return
		}
	}
	p.Authors = append(p.Authors, personID)
}

// Triples implements Entity, authorships included.
func (p *Publication) Triples(namespace string) []rdf.Statement {
	uri := p.URI(namespace)
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.BIBOArticle),
		rdf.Triple(uri, rdf.Label, rdf.String(p.Title)),
		rdf.Triple(uri, rdf.BIBOPMID, rdf.String(p.PMID)),
	}
	if p.DOI != "" {
		out = append(out, rdf.Triple(uri, rdf.BIBODOI, rdf.String(p.DOI)))
	}
	if p.Year != "" {
		dtv := uri + "dtv"
		out = append(out,
			rdf.Link(uri, rdf.VIVODateTimeValue, dtv),
			rdf.Triple(dtv, rdf.VIVODateTime, rdf.DateTime(p.Year+"-01-01T00:00:00")),
		)
	}
	if p.Citation != "" {
		out = append(out, rdf.Triple(uri, rdf.M3CCitation, rdf.String(p.Citation)))
	}
	for _, author := range p.Authors {
		out = append(out, p.AuthorshipTriples(namespace, author)...)
	}
	return out
}

// AuthorshipTriples renders the authorship node relating a person to the
// publication.
func (p *Publication) AuthorshipTriples(namespace, personID string) []rdf.Statement {
	uri := p.URI(namespace)
	person := PersonURI(namespace, personID)
	relation := person + "r" + p.PMID
	return []rdf.Statement{
		rdf.Link(relation, rdf.Type, rdf.VIVOAuthorship),
		rdf.Link(uri, rdf.VIVORelatedBy, relation),
		rdf.Link(relation, rdf.VIVORelates, uri),
		rdf.Link(person, rdf.VIVORelatedBy, relation),
		rdf.Link(relation, rdf.VIVORelates, person),
	}
}
