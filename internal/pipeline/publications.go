package pipeline

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"m3c/internal/failure"
	"m3c/internal/pubmed"
	"m3c/internal/source"
	"m3c/pkg/domain"
	"m3c/pkg/rdf"
)

// publications renders the consortium's publications, either from stored
// efetch documents or by searching PubMed for every visible person.
func (p *Pipeline) publications(ctx context.Context, st *State, dir string) error {
	var (
		pubs []*domain.Publication
		err  error
	)
	if p.opts.SearchPublications {
		pubs, err = p.searchPublications(ctx, st.Visible)
	} else {
		pubs, err = p.storedPublications(ctx)
	}
	if err != nil {
		return err
	}
	return p.emitPublications(st, dir, pubs)
}

// personPublications searches the publications of the one person the run
// is restricted to.
func (p *Pipeline) personPublications(ctx context.Context, st *State, dir string) error {
	i := slices.IndexFunc(st.Visible, func(person domain.Person) bool { return person.ID == p.opts.PersonID })
	if i < 0 {
		return failure.Fatal(fmt.Errorf("person %s: %w", p.opts.PersonID, errUnknownPerson),
			"pass the id of a person in the people table who is not withheld")
	}
	pubs, err := p.searchPublications(ctx, st.Visible[i:i+1])
	if err != nil {
		return err
	}
	return p.emitPublications(st, dir, pubs)
}

func (p *Pipeline) emitPublications(st *State, dir string, pubs []*domain.Publication) error {
	st.Publications = pubs
	var out []rdf.Statement
	for _, pub := range pubs {
		out = append(out, pub.Triples(p.opts.Namespace)...)
	}
	return p.emit(dir, CategoryPublications, len(pubs), out)
}

// storedPublications keeps documents with at least one consortium author.
func (p *Pipeline) storedPublications(ctx context.Context) ([]*domain.Publication, error) {
	records, err := p.deps.Source.Publications(ctx)
	if err != nil {
		return nil, err
	}
	authorships, err := p.deps.Source.Authorships(ctx)
	if err != nil {
		return nil, err
	}
	var pubs []*domain.Publication
	for _, rec := range records {
		authors := authorships[rec.PMID]
		if len(authors) == 0 {
			continue
		}
		pub, err := pubmed.PublicationFromXML(rec.PMID, rec.XML)
		if err != nil {
			p.skip(CategoryPublications, "bad_xml", err, zap.String("pmid", rec.PMID))
			continue
		}
		for _, a := range authors {
			pub.AddAuthor(a)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// searchPublications credits each person with the articles PubMed finds
// under their full name, plus the PMIDs curators included for them, minus
// the ones curators excluded. A person whose search or fetch fails is
// skipped. Publications are returned in the order they were first found.
func (p *Pipeline) searchPublications(ctx context.Context, people []domain.Person) ([]*domain.Publication, error) {
	overrides, err := p.deps.Source.PublicationOverrides(ctx)
	if err != nil {
		return nil, err
	}
	include, exclude := splitOverrides(overrides)

	byPMID := make(map[string]*domain.Publication)
	var pubs []*domain.Publication
	for _, person := range people {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := p.deps.PubMed.Search(ctx, pubmed.AuthorQuery(person.FirstName, person.LastName))
		if err != nil {
			p.skip(CategoryPublications, "search_failed", err, zap.String("person", person.ID))
			continue
		}
		pmids := mergePMIDs(found, include[person.ID], exclude[person.ID])
		if len(pmids) == 0 {
			continue
		}
		articles, err := p.deps.PubMed.FetchAll(ctx, pmids)
		if err != nil {
			p.skip(CategoryPublications, "fetch_failed", err, zap.String("person", person.ID))
			continue
		}
		for _, a := range articles {
			if !slices.Contains(pmids, a.PMID) {
				continue
			}
			if a.Year == "" {
				p.skip(CategoryPublications, "no_date",
					fmt.Errorf("pmid %s: %w", a.PMID, errMissingPubDate),
					zap.String("pmid", a.PMID))
				continue
			}
			pub, ok := byPMID[a.PMID]
			if !ok {
				pub = a.Publication()
				byPMID[a.PMID] = pub
				pubs = append(pubs, pub)
			}
			pub.AddAuthor(person.ID)
		}
		p.log.Debug("person publications found",
			zap.String("person", person.ID),
			zap.Int("searched", len(found)),
			zap.Int("merged", len(pmids)))
	}
	return pubs, nil
}

// splitOverrides groups curator overrides by person.
func splitOverrides(overrides []source.PublicationOverride) (include, exclude map[string][]string) {
	include = make(map[string][]string)
	exclude = make(map[string][]string)
	for _, o := range overrides {
		if o.Include {
			include[o.PersonID] = append(include[o.PersonID], o.PMID)
		} else {
			exclude[o.PersonID] = append(exclude[o.PersonID], o.PMID)
		}
	}
	return include, exclude
}

// mergePMIDs returns found followed by include, without anything in exclude
// and without duplicates.
func mergePMIDs(found, include, exclude []string) []string {
	var out []string
	for _, pmid := range slices.Concat(found, include) {
		if slices.Contains(exclude, pmid) || slices.Contains(out, pmid) {
			continue
		}
		out = append(out, pmid)
	}
	return out
}
