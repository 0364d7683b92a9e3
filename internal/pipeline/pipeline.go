// Package pipeline runs one graph build: it reads every category from a
// source, renders statements into a dated output directory and optionally
// differences the result against a previous run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"m3c/internal/affiliation"
	"m3c/internal/blob"
	"m3c/internal/failure"
	"m3c/internal/metrics"
	"m3c/internal/pubmed"
	"m3c/internal/snapshot"
	"m3c/internal/source"
	"m3c/pkg/domain"
	"m3c/pkg/rdf"
)

var (
	errEmptyNamespace = errors.New("namespace is empty")
	errNamespaceSlash = errors.New("namespace does not end with '/'")
	errNoSearcher     = errors.New("publication search needs a PubMed client")
	errPersonDiff     = errors.New("a single-person run cannot be differenced")
	errBadPersonID    = errors.New("person id cannot name a file")
	errUnknownPerson  = errors.New("no visible person with this id")
	errMissingPubDate = errors.New("publication has no date")
	errOrphanStudies  = errors.New("studies without projects")
	errOrphanDatasets = errors.New("datasets without studies")
)

// ToolLoader reads tool definition files.
type ToolLoader interface {
	YAML(path string) ([]*domain.Tool, error)
	CSV(ctx context.Context, path string) ([]*domain.Tool, error)
}

// PublicationSearcher finds and downloads PubMed records.
type PublicationSearcher interface {
	Search(ctx context.Context, term string) ([]string, error)
	FetchAll(ctx context.Context, pmids []string) ([]pubmed.Article, error)
}

// Deps are the collaborators of a run. Photos, Tools, PubMed, Logger and
// Metrics may be nil; PubMed is required when publications are searched.
type Deps struct {
	Source  source.Source
	Photos  blob.Store
	Tools   ToolLoader
	PubMed  PublicationSearcher
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Options configure a run.
type Options struct {
	Namespace string
	OutputDir string
	// Embargoed holds study IDs that must not be published.
	Embargoed map[string]bool
	ToolsYAML string
	ToolsCSV  string
	// SearchPublications finds publications by searching PubMed for every
	// visible person instead of reading stored efetch documents.
	SearchPublications bool
	// PersonID restricts the run to searching one person's publications,
	// written to <id>_pubs.nt.
	PersonID string
	// Now stamps the output directory; defaults to time.Now.
	Now func() time.Time
}

// Result summarizes a finished run.
type Result struct {
	Dir    string
	Counts map[string]int
	// Delta is set when a previous run was differenced.
	Delta *snapshot.Delta
}

// Pipeline builds the graph.
type Pipeline struct {
	deps Deps
	opts Options
	log  *zap.Logger
}

// New returns a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{deps: deps, opts: opts, log: log}
}

// Run builds every category in order. When previousDir is not empty the
// output is differenced against it and add.nt and sub.nt are written.
// A fatal error stops the run; files already written stay in place.
func (p *Pipeline) Run(ctx context.Context, previousDir string) (Result, error) {
	started := time.Now()
	ns := p.opts.Namespace
	if ns == "" {
		return Result{}, failure.Fatal(errEmptyNamespace, "set namespace in the configuration file or M3C_NAMESPACE")
	}
	if err := p.checkOptions(previousDir); err != nil {
		return Result{}, err
	}
	if !strings.HasSuffix(ns, "/") {
		p.warn("namespace_without_slash", errNamespaceSlash, zap.String("namespace", ns))
	}
	dir := DatedDir(p.opts.OutputDir, p.opts.Now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	p.log.Info("building graph", zap.String("dir", dir))

	st := newState()
	for _, step := range p.steps() {
		if err := ctx.Err(); err != nil {
			return Result{Dir: dir}, err
		}
		if err := step.run(ctx, st, dir); err != nil {
			return Result{Dir: dir}, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	categories := p.deps.Metrics.Categories()
	res := Result{Dir: dir, Counts: make(map[string]int, len(categories))}
	for _, c := range categories {
		res.Counts[c] = p.deps.Metrics.Count(c)
	}
	if previousDir != "" {
		delta, err := snapshot.DiffDirs(ctx, previousDir, dir)
		if err != nil {
			return res, fmt.Errorf("diff against %s: %w", previousDir, err)
		}
		if err := snapshot.WriteDelta(dir, delta); err != nil {
			return res, err
		}
		if delta.Empty() {
			p.log.Info("no changes since previous run", zap.String("previous", previousDir))
		} else {
			p.log.Info("wrote change set",
				zap.Int("add", len(delta.Add)),
				zap.Int("sub", len(delta.Sub)))
		}
		res.Delta = &delta
	}
	p.deps.Metrics.ObserveDuration(time.Since(started))
	return res, nil
}

type step struct {
	name string
	run  func(context.Context, *State, string) error
}

// steps lists the run in order. A single-person run only loads people and
// searches that person's publications.
func (p *Pipeline) steps() []step {
	if p.opts.PersonID != "" {
		return []step{
			{"people", p.people},
			{"person publications", p.personPublications},
		}
	}
	return []step{
		{"organizations", p.organizations},
		{"people", p.people},
		{"photos", p.photos},
		{"publications", p.publications},
		{"tools", p.tools},
		{"projects", p.projects},
		{"studies", p.studies},
		{"datasets", p.datasets},
		{"study file", p.studyFile},
		{"people file", p.peopleFile},
	}
}

func (p *Pipeline) checkOptions(previousDir string) error {
	if id := p.opts.PersonID; id != "" {
		if previousDir != "" {
			return errPersonDiff
		}
		if filepath.Base(id) != id || !filepath.IsLocal(id) {
			return fmt.Errorf("%w: %q", errBadPersonID, id)
		}
	}
	if (p.opts.SearchPublications || p.opts.PersonID != "") && p.deps.PubMed == nil {
		return failure.Fatal(errNoSearcher, "configure the pubmed section")
	}
	return nil
}

// fileStem names a category's statement file. A single-person run writes
// beside the full files instead of appending to them.
func (p *Pipeline) fileStem(category string) string {
	if p.opts.PersonID != "" {
		return p.opts.PersonID + "_" + category
	}
	return category
}

// emit appends a category's statements and records how many entities they
// came from.
func (p *Pipeline) emit(dir, category string, entities int, statements []rdf.Statement) error {
	if err := appendStatements(dir, p.fileStem(category), statements); err != nil {
		return err
	}
	p.deps.Metrics.Emitted(category, entities)
	p.log.Info("category written",
		zap.String("category", category),
		zap.Int("entities", entities),
		zap.Int("statements", len(statements)))
	return nil
}

func (p *Pipeline) skip(category, reason string, err error, fields ...zap.Field) {
	err = failure.Skip(err, "")
	p.deps.Metrics.Skipped(category, reason)
	fields = append(fields,
		zap.String("category", category),
		zap.String("reason", reason),
		zap.Stringer("class", failure.ClassOf(err)),
		zap.Error(err))
	p.log.Warn("record skipped", fields...)
}

// warn reports a data problem that neither stops the run nor drops a
// record.
func (p *Pipeline) warn(kind string, err error, fields ...zap.Field) {
	err = failure.Warning(err)
	p.deps.Metrics.Warned(kind)
	p.log.Warn(err.Error(), append(fields,
		zap.String("kind", kind),
		zap.Stringer("class", failure.ClassOf(err)))...)
}

func (p *Pipeline) organizations(ctx context.Context, st *State, dir string) error {
	orgs, err := p.deps.Source.Organizations(ctx)
	if err != nil {
		return err
	}
	st.setOrganizations(orgs)
	p.log.Debug("organizations indexed", zap.Int("organizations", st.Index.Len()))
	var out []rdf.Statement
	for _, o := range orgs {
		out = append(out, o.Triples(p.opts.Namespace)...)
	}
	return p.emit(dir, CategoryOrganizations, len(orgs), out)
}

// people loads and splits people. Their statements are written last, after
// every category that can reference them.
func (p *Pipeline) people(ctx context.Context, st *State, _ string) error {
	people, err := p.deps.Source.People(ctx)
	if err != nil {
		return err
	}
	st.setPeople(people)
	p.log.Debug("people loaded",
		zap.Int("visible", len(st.Visible)),
		zap.Int("withheld", len(st.Withheld)))
	return nil
}

var photoExtensions = []string{"jpg", "png"}

// photos looks up storage for each visible person's picture, jpg first.
func (p *Pipeline) photos(ctx context.Context, st *State, dir string) error {
	if p.deps.Photos == nil {
		p.log.Info("no photo store configured, skipping photos")
		return p.emit(dir, CategoryPhotos, 0, nil)
	}
	var out []rdf.Statement
	for _, person := range st.Visible {
		for _, ext := range photoExtensions {
			photo, err := domain.NewPhoto(person.ID, ext)
			if err != nil {
				p.skip(CategoryPhotos, "bad_person_id", err, zap.String("person", person.ID))
				break
			}
			_, err = p.deps.Photos.Head(ctx, photo.StorageKey())
			if errors.Is(err, blob.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("look up %s: %w", photo.StorageKey(), err)
			}
			st.Photos = append(st.Photos, photo)
			out = append(out, photo.Triples(p.opts.Namespace)...)
			break
		}
	}
	return p.emit(dir, CategoryPhotos, len(st.Photos), out)
}

func (p *Pipeline) loadTools(ctx context.Context) []*domain.Tool {
	if p.deps.Tools == nil {
		return nil
	}
	var tools []*domain.Tool
	if p.opts.ToolsYAML != "" {
		loaded, err := p.deps.Tools.YAML(p.opts.ToolsYAML)
		if err != nil {
			p.skip(CategoryTools, "unreadable_file", err, zap.String("file", p.opts.ToolsYAML))
		}
		tools = append(tools, loaded...)
	}
	if p.opts.ToolsCSV != "" {
		loaded, err := p.deps.Tools.CSV(ctx, p.opts.ToolsCSV)
		if err != nil {
			p.skip(CategoryTools, "unreadable_file", err, zap.String("file", p.opts.ToolsCSV))
		}
		tools = append(tools, loaded...)
	}
	return tools
}

// tools renders tools whose every author is a known person.
func (p *Pipeline) tools(ctx context.Context, st *State, dir string) error {
	var out []rdf.Statement
	for _, tool := range p.loadTools(ctx) {
		if unmatched := st.Authors.MatchToolAuthors(p.opts.Namespace, tool); len(unmatched) > 0 {
			p.skip(CategoryTools, "unmatched_author",
				fmt.Errorf("not all authors matched for tool %s", tool.ID),
				zap.String("tool", tool.ID),
				zap.Strings("authors", unmatched))
			continue
		}
		st.Tools = append(st.Tools, tool)
		out = append(out, tool.Triples(p.opts.Namespace)...)
	}
	return p.emit(dir, CategoryTools, len(st.Tools), out)
}

func (p *Pipeline) projects(ctx context.Context, st *State, dir string) error {
	records, err := p.deps.Source.Projects(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		project, err := domain.NewProject(rec.ID, rec.Title)
		if err != nil {
			return failure.Fatal(err, "every Workbench project needs a project_id")
		}
		project.Type = rec.Type
		project.Summary = rec.Summary
		project.DOI = rec.DOI
		project.FundingSource = rec.FundingSource
		project.Affiliation, err = st.Resolver.Resolve(domain.EntityProject, rec.ID,
			affiliation.ParseLists(rec.Institutes, rec.Departments, rec.Labs))
		if err != nil {
			return err
		}
		project.PIs, err = st.Investigators.ResolveNames(domain.EntityProject, rec.ID, "PI", rec.LastNames, rec.FirstNames)
		if err != nil {
			return err
		}
		st.addProject(project)
	}
	var out, summaries []rdf.Statement
	for _, id := range st.ProjectOrder {
		project := st.Projects[id]
		out = append(out, project.Triples(p.opts.Namespace)...)
		if s, ok := project.SummaryStatement(p.opts.Namespace); ok {
			summaries = append(summaries, s)
		}
	}
	return p.emit(dir, CategoryProjects, len(st.ProjectOrder), append(out, summaries...))
}

// studies builds released studies. Their file is written once datasets have
// contributed species.
func (p *Pipeline) studies(ctx context.Context, st *State, _ string) error {
	records, err := p.deps.Source.Studies(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if p.opts.Embargoed[rec.ID] {
			p.log.Info("skipping embargoed study", zap.String("study", rec.ID))
			p.deps.Metrics.Skipped(CategoryStudies, "embargoed")
			continue
		}
		if strings.HasPrefix(rec.ID, "ST9") {
			p.log.Info("skipping test study", zap.String("study", rec.ID))
			p.deps.Metrics.Skipped(CategoryStudies, "test_study")
			continue
		}
		study, err := domain.NewStudy(rec.ID, rec.Title)
		if err != nil {
			return failure.Fatal(err, "every released study needs a study_id")
		}
		study.Type = rec.Type
		study.Summary = rec.Summary
		study.SubmitDate = submitDateTime(rec.SubmitDate)
		study.ProjectID = rec.ProjectID
		study.Affiliation, err = st.Resolver.Resolve(domain.EntityStudy, rec.ID,
			affiliation.ParseLists(rec.Institutes, rec.Departments, rec.Labs))
		if err != nil {
			return err
		}
		study.Runners, err = st.Investigators.ResolveNames(domain.EntityStudy, rec.ID, "runner", rec.LastNames, rec.FirstNames)
		if err != nil {
			return err
		}
		if _, ok := st.Projects[study.ProjectID]; ok {
			study.InCollection = true
		}
		st.addStudy(study)
	}
	var orphans []string
	for _, id := range st.StudyOrder {
		if !st.Studies[id].InCollection {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		p.warn("study_without_project", errOrphanStudies,
			zap.Int("studies", len(orphans)),
			zap.Strings("study_ids", orphans))
	}
	return nil
}

// submitDateTime turns a date column into an xsd:dateTime lexical value.
func submitDateTime(date string) string {
	date = strings.TrimSpace(date)
	if date == "" || strings.Contains(date, "T") {
		return date
	}
	if len(date) > len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}
	return date + "T00:00:00"
}

// datasets writes samples and attaches their species to studies.
func (p *Pipeline) datasets(ctx context.Context, st *State, dir string) error {
	records, err := p.deps.Source.Datasets(ctx)
	if err != nil {
		return err
	}
	var orphans, missing []string
	var out []rdf.Statement
	for _, rec := range records {
		ds := domain.Dataset{SampleID: rec.SampleID, StudyID: rec.StudyID, Species: rec.Species}
		if study, ok := st.Studies[rec.StudyID]; ok {
			ds.StudyLinked = true
			study.AddSpecies(rec.Species)
		} else {
			orphans = append(orphans, rec.SampleID)
			if !slices.Contains(missing, rec.StudyID) {
				missing = append(missing, rec.StudyID)
			}
		}
		st.Datasets = append(st.Datasets, ds)
		out = append(out, ds.Triples(p.opts.Namespace)...)
	}
	if len(orphans) > 0 {
		p.warn("dataset_without_study", errOrphanDatasets,
			zap.Int("datasets", len(orphans)),
			zap.Strings("sample_ids", orphans),
			zap.Strings("study_ids", missing))
	}
	return p.emit(dir, CategoryDatasets, len(st.Datasets), out)
}

// studyFile writes study statements, then summaries, then species.
func (p *Pipeline) studyFile(_ context.Context, st *State, dir string) error {
	ns := p.opts.Namespace
	var out, summaries, species []rdf.Statement
	for _, id := range st.StudyOrder {
		study := st.Studies[id]
		out = append(out, study.Triples(ns)...)
		if s, ok := study.SummaryStatement(ns); ok {
			summaries = append(summaries, s)
		}
		species = append(species, study.SpeciesTriples(ns)...)
	}
	out = append(out, summaries...)
	out = append(out, species...)
	return p.emit(dir, CategoryStudies, len(st.StudyOrder), out)
}

// peopleFile writes visible people and their organization associations.
func (p *Pipeline) peopleFile(ctx context.Context, st *State, dir string) error {
	ns := p.opts.Namespace
	var out []rdf.Statement
	for _, person := range st.Visible {
		out = append(out, person.Triples(ns)...)
	}
	assocs, err := p.deps.Source.Associations(ctx)
	if err != nil {
		return err
	}
	for _, a := range assocs {
		org, ok := st.Index.Get(a.OrganizationID)
		if !ok {
			p.skip(CategoryPeople, "unknown_organization",
				fmt.Errorf("association of person %s to unknown organization %s", a.PersonID, a.OrganizationID))
			continue
		}
		out = append(out, org.AssociationTriples(ns, a.PersonID)...)
	}
	return p.emit(dir, CategoryPeople, len(st.Visible), out)
}
