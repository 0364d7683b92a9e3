package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"m3c/pkg/domain"
)

const (
	queryOrganizations = `
		SELECT CAST(id AS TEXT), name, type, COALESCE(CAST(parent_id AS TEXT), '')
		  FROM organizations
		 WHERE withheld = FALSE
		 ORDER BY id`

	queryPeople = `
		SELECT CAST(p.id AS TEXT), n.first_name, n.last_name,
		       COALESCE(p.display_name, ''), COALESCE(p.email, ''),
		       COALESCE(p.phone, ''), p.withheld
		  FROM people p
		  JOIN names n ON p.id = n.person_id
		 WHERE n.withheld = FALSE
		 ORDER BY p.id, n.last_name, n.first_name`

	queryAssociations = `
		SELECT CAST(a.person_id AS TEXT), CAST(a.organization_id AS TEXT)
		  FROM associations a
		  JOIN organizations o ON a.organization_id = o.id
		  JOIN people p ON a.person_id = p.id
		 WHERE p.withheld IS NOT TRUE AND o.withheld IS NOT TRUE
		 ORDER BY a.person_id, a.organization_id`

	queryPublications = `
		SELECT pmid, xml
		  FROM pubmed_publications
		 ORDER BY pmid`

	queryAuthorships = `
		SELECT pmid, CAST(person_id AS TEXT)
		  FROM pubmed_authorships
		 WHERE excluded IS NOT TRUE
		 ORDER BY pmid, person_id`

	queryPublicationOverrides = `
		SELECT CAST(pmid AS TEXT), CAST(person_id AS TEXT), COALESCE(include, FALSE)
		  FROM publications
		 ORDER BY person_id, pmid`

	queryProjects = `
		SELECT project_id, COALESCE(project_title, ''), COALESCE(project_type, ''),
		       COALESCE(project_summary, ''), COALESCE(doi, ''),
		       COALESCE(funding_source, ''),
		       COALESCE(last_name, ''), COALESCE(first_name, ''),
		       COALESCE(institute, ''), COALESCE(department, ''),
		       COALESCE(laboratory, '')
		  FROM project
		 ORDER BY project_id`

	queryStudies = `
		SELECT study.study_id, COALESCE(study.study_title, ''),
		       COALESCE(study.study_type, ''), COALESCE(study.study_summary, ''),
		       COALESCE(CAST(study.submit_date AS TEXT), ''),
		       COALESCE(study.project_id, ''),
		       COALESCE(study.last_name, ''), COALESCE(study.first_name, ''),
		       COALESCE(study.institute, ''), COALESCE(study.department, ''),
		       COALESCE(study.laboratory, '')
		  FROM study
		  JOIN study_status_prod ON study.study_id = study_status_prod.study_id
		 WHERE study_status_prod.status = 1
		 ORDER BY study.study_id`

	queryDatasets = `
		SELECT metadata.mb_sample_id, metadata.study_id,
		       COALESCE(subject.subject_species, '')
		  FROM metadata
		  JOIN subject ON metadata.subject_id = subject.subject_id
		 ORDER BY metadata.mb_sample_id`
)

// SQL reads records through two database handles.
type SQL struct {
	workbench    *sql.DB
	supplemental *sql.DB
}

var _ Source = (*SQL)(nil)

// NewSQL returns a Source over the Workbench and supplemental databases.
func NewSQL(workbench, supplemental *sql.DB) *SQL {
	return &SQL{workbench: workbench, supplemental: supplemental}
}

// query runs q and calls scan once per row.
func query(ctx context.Context, db *sql.DB, what, q string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", what, err)
	}
	return nil
}

// oneLine drops line breaks from identifiers.
func oneLine(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// Organizations implements Source.
func (s *SQL) Organizations(ctx context.Context) ([]domain.Organization, error) {
	var out []domain.Organization
	err := query(ctx, s.supplemental, "organizations", queryOrganizations, func(rows *sql.Rows) error {
		var id, name, typ, parent string
		if err := rows.Scan(&id, &name, &typ, &parent); err != nil {
			return err
		}
		org, err := domain.NewOrganization(id, name, domain.OrgType(typ), parent)
		if err != nil {
			return err
		}
		out = append(out, org)
		return nil
	})
	return out, err
}

// People implements Source. A person with several visible names is
// returned once, under the first.
func (s *SQL) People(ctx context.Context) ([]domain.Person, error) {
	var out []domain.Person
	seen := make(map[string]bool)
	err := query(ctx, s.supplemental, "people", queryPeople, func(rows *sql.Rows) error {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DisplayName, &p.Email, &p.Phone, &p.Withheld); err != nil {
			return err
		}
		if seen[p.ID] {
			return nil
		}
		seen[p.ID] = true
		out = append(out, p)
		return nil
	})
	return out, err
}

// Associations implements Source.
func (s *SQL) Associations(ctx context.Context) ([]Association, error) {
	var out []Association
	err := query(ctx, s.supplemental, "associations", queryAssociations, func(rows *sql.Rows) error {
		var a Association
		if err := rows.Scan(&a.PersonID, &a.OrganizationID); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// Publications implements Source.
func (s *SQL) Publications(ctx context.Context) ([]PublicationRecord, error) {
	var out []PublicationRecord
	err := query(ctx, s.supplemental, "publications", queryPublications, func(rows *sql.Rows) error {
		var p PublicationRecord
		if err := rows.Scan(&p.PMID, &p.XML); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// Authorships implements Source.
func (s *SQL) Authorships(ctx context.Context) (map[string][]string, error) {
	out := make(map[string][]string)
	err := query(ctx, s.supplemental, "authorships", queryAuthorships, func(rows *sql.Rows) error {
		var pmid, person string
		if err := rows.Scan(&pmid, &person); err != nil {
			return err
		}
		out[pmid] = append(out[pmid], person)
		return nil
	})
	return out, err
}

// PublicationOverrides implements Source.
func (s *SQL) PublicationOverrides(ctx context.Context) ([]PublicationOverride, error) {
	var out []PublicationOverride
	err := query(ctx, s.supplemental, "publication overrides", queryPublicationOverrides, func(rows *sql.Rows) error {
		var o PublicationOverride
		if err := rows.Scan(&o.PMID, &o.PersonID, &o.Include); err != nil {
			return err
		}
		o.PMID = oneLine(o.PMID)
		out = append(out, o)
		return nil
	})
	return out, err
}

// Projects implements Source.
func (s *SQL) Projects(ctx context.Context) ([]ProjectRecord, error) {
	var out []ProjectRecord
	err := query(ctx, s.workbench, "projects", queryProjects, func(rows *sql.Rows) error {
		var r ProjectRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.Summary, &r.DOI, &r.FundingSource,
			&r.LastNames, &r.FirstNames, &r.Institutes, &r.Departments, &r.Labs); err != nil {
			return err
		}
		r.ID = oneLine(r.ID)
		r.Type = oneLine(r.Type)
		r.DOI = oneLine(r.DOI)
		out = append(out, r)
		return nil
	})
	return out, err
}

// Studies implements Source. Only studies released to production are
// returned.
func (s *SQL) Studies(ctx context.Context) ([]StudyRecord, error) {
	var out []StudyRecord
	err := query(ctx, s.workbench, "studies", queryStudies, func(rows *sql.Rows) error {
		var r StudyRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.Summary, &r.SubmitDate, &r.ProjectID,
			&r.LastNames, &r.FirstNames, &r.Institutes, &r.Departments, &r.Labs); err != nil {
			return err
		}
		r.ID = oneLine(r.ID)
		r.Type = oneLine(r.Type)
		r.ProjectID = oneLine(r.ProjectID)
		out = append(out, r)
		return nil
	})
	return out, err
}

// Datasets implements Source.
func (s *SQL) Datasets(ctx context.Context) ([]DatasetRecord, error) {
	var out []DatasetRecord
	err := query(ctx, s.workbench, "datasets", queryDatasets, func(rows *sql.Rows) error {
		var r DatasetRecord
		if err := rows.Scan(&r.SampleID, &r.StudyID, &r.Species); err != nil {
			return err
		}
		r.Species = oneLine(r.Species)
		out = append(out, r)
		return nil
	})
	return out, err
}
