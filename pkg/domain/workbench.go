package domain

import (
	"slices"

	"m3c/pkg/rdf"
)

const workbenchMetadataURL = "https://www.metabolomicsworkbench.org/data/DRCCMetadata.php"

// Affiliation is the resolved institute/department/lab chain of a project or
// study. Every slice holds organization IDs.
type Affiliation struct {
	Institutes  []string
	Departments []string
	Labs        []string
}

func (a Affiliation) triples(namespace, uri string) []rdf.Statement {
	var out []rdf.Statement
	for _, group := range [][]string{a.Institutes, a.Departments, a.Labs} {
		for _, id := range group {
			org := OrganizationURI(namespace, id)
			out = append(out,
				rdf.Link(uri, rdf.M3CManagedBy, org),
				rdf.Link(org, rdf.M3CManages, uri),
			)
		}
	}
	return out
}

// Project is a Metabolomics Workbench project.
type Project struct {
	ID            string
	Title         string
	Type          string
	Summary       string
	DOI           string
	FundingSource string
	Affiliation   Affiliation
	PIs           []string // person IDs
}

// NewProject returns a project with the mandatory ID checked.
func NewProject(id, title string) (*Project, error) {
	if id == "" {
		return nil, ErrMissingField{Entity: EntityProject, Field: "project_id"}
	}
	return &Project{ID: id, Title: title}, nil
}

func (*Project) entity() {}

// EntityType implements Entity.
func (*Project) EntityType() EntityType { return EntityProject }

// URI returns the project's URI.
func (p *Project) URI(namespace string) string { return WorkbenchURI(namespace, p.ID) }

// Triples implements Entity. The summary is rendered by SummaryStatement.
func (p *Project) Triples(namespace string) []rdf.Statement {
	uri := p.URI(namespace)
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.M3CProject),
		rdf.Triple(uri, rdf.Label, rdf.String(p.Title)),
		rdf.Triple(uri, rdf.M3CProjectID, rdf.String(p.ID)),
		rdf.Triple(uri, rdf.M3CWorkbenchLink, rdf.String(workbenchMetadataURL+"?Mode=Project&ProjectID="+p.ID)),
	}
	if p.Type != "" {
		out = append(out, rdf.Triple(uri, rdf.M3CProjectType, rdf.String(p.Type)))
	}
	if p.DOI != "" {
		out = append(out, rdf.Triple(uri, rdf.BIBODOI, rdf.String(p.DOI)))
	}
	out = append(out, p.Affiliation.triples(namespace, uri)...)
	for _, pi := range p.PIs {
		person := PersonURI(namespace, pi)
		out = append(out,
			rdf.Link(uri, rdf.M3CHasPI, person),
			rdf.Link(person, rdf.M3CIsPIFor, uri),
		)
	}
	return out
}

// SummaryStatement returns the summary statement, which callers route
// separately because of its length.
func (p *Project) SummaryStatement(namespace string) (rdf.Statement, bool) {
	if p.Summary == "" {
		return rdf.Statement{}, false
	}
	return rdf.Triple(p.URI(namespace), rdf.M3CSummary, rdf.String(p.Summary)), true
}

// Study is a Metabolomics Workbench study.
type Study struct {
	ID          string
	Title       string
	Type        string
	Summary     string
	SubmitDate  string // xsd:dateTime lexical form, empty when unknown
	ProjectID   string
	Affiliation Affiliation
	Runners     []string // person IDs

	// InCollection is set once ProjectID is known to resolve to a rendered
	// project.
	InCollection bool
	// Species accumulates the distinct subject species of attached datasets.
	Species []string
}

// NewStudy returns a study with the mandatory ID checked.
func NewStudy(id, title string) (*Study, error) {
	if id == "" {
		return nil, ErrMissingField{Entity: EntityStudy, Field: "study_id"}
	}
	return &Study{ID: id, Title: title}, nil
}

func (*Study) entity() {}

// EntityType implements Entity.
func (*Study) EntityType() EntityType { return EntityStudy }

// URI returns the study's URI.
func (s *Study) URI(namespace string) string { return WorkbenchURI(namespace, s.ID) }

// AddSpecies records a subject species once. Empty values are ignored.
func (s *Study) AddSpecies(species string) {
	if species == "" || slices.Contains(s.Species, species) {
		return
	}
	s.Species = append(s.Species, species)
}

// Triples implements Entity. Summary and species are rendered separately.
func (s *Study) Triples(namespace string) []rdf.Statement {
	uri := s.URI(namespace)
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.M3CStudy),
		rdf.Triple(uri, rdf.Label, rdf.String(s.Title)),
		rdf.Triple(uri, rdf.M3CStudyID, rdf.String(s.ID)),
		rdf.Triple(uri, rdf.M3CWorkbenchLink, rdf.String(workbenchMetadataURL+"?Mode=Study&StudyID="+s.ID)),
	}
	if s.Type != "" {
		out = append(out, rdf.Triple(uri, rdf.M3CStudyType, rdf.String(s.Type)))
	}
	if s.SubmitDate != "" {
		out = append(out, rdf.Triple(uri, rdf.M3CSubmitted, rdf.DateTime(s.SubmitDate)))
	}
	if s.InCollection && s.ProjectID != "" {
		project := WorkbenchURI(namespace, s.ProjectID)
		out = append(out,
			rdf.Link(uri, rdf.M3CInCollection, project),
			rdf.Link(project, rdf.M3CCollectionFor, uri),
		)
	}
	out = append(out, s.Affiliation.triples(namespace, uri)...)
	for _, runner := range s.Runners {
		person := PersonURI(namespace, runner)
		out = append(out,
			rdf.Link(uri, rdf.M3CRunBy, person),
			rdf.Link(person, rdf.M3CRunnerOf, uri),
		)
	}
	return out
}

// SummaryStatement returns the summary statement, if any.
func (s *Study) SummaryStatement(namespace string) (rdf.Statement, bool) {
	if s.Summary == "" {
		return rdf.Statement{}, false
	}
	return rdf.Triple(s.URI(namespace), rdf.M3CSummary, rdf.String(s.Summary)), true
}

// SpeciesTriples renders the accumulated subject species.
func (s *Study) SpeciesTriples(namespace string) []rdf.Statement {
	uri := s.URI(namespace)
	out := make([]rdf.Statement, 0, len(s.Species))
	for _, species := range s.Species {
		out = append(out, rdf.Triple(uri, rdf.M3CSubjectSpecies, rdf.String(species)))
	}
	return out
}

// Dataset is a Workbench sample.
type Dataset struct {
	SampleID string
	StudyID  string
	Species  string
	// StudyLinked is set once StudyID is known to resolve to a study.
	StudyLinked bool
}

func (Dataset) entity() {}

// EntityType implements Entity.
func (Dataset) EntityType() EntityType { return EntityDataset }

// Triples implements Entity.
func (d Dataset) Triples(namespace string) []rdf.Statement {
	uri := WorkbenchURI(namespace, d.SampleID)
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.M3CDataset),
		rdf.Triple(uri, rdf.M3CSampleID, rdf.String(d.SampleID)),
	}
	if d.Species != "" {
		out = append(out, rdf.Triple(uri, rdf.M3CSubjectSpecies, rdf.Plain(d.Species)))
	}
	if d.StudyLinked && d.StudyID != "" {
		study := WorkbenchURI(namespace, d.StudyID)
		out = append(out,
			rdf.Link(uri, rdf.M3CDataFor, study),
			rdf.Link(study, rdf.M3CDevelopedFrom, uri),
		)
	}
	return out
}
