package source

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3c/internal/infra/database/sqlite"
	"m3c/pkg/domain"
)

const supplementalSchema = `
CREATE TABLE organizations (id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL, parent_id INTEGER, withheld BOOLEAN NOT NULL DEFAULT FALSE);
CREATE TABLE people (id INTEGER PRIMARY KEY, display_name TEXT, email TEXT, phone TEXT, withheld BOOLEAN NOT NULL DEFAULT FALSE);
CREATE TABLE names (person_id INTEGER NOT NULL, first_name TEXT NOT NULL, last_name TEXT NOT NULL, withheld BOOLEAN NOT NULL DEFAULT FALSE);
CREATE TABLE associations (person_id INTEGER NOT NULL, organization_id INTEGER NOT NULL);
CREATE TABLE pubmed_publications (pmid TEXT PRIMARY KEY, xml BLOB NOT NULL);
CREATE TABLE pubmed_authorships (pmid TEXT NOT NULL, person_id INTEGER NOT NULL, excluded BOOLEAN);
CREATE TABLE publications (pmid TEXT NOT NULL, person_id INTEGER NOT NULL, include BOOLEAN)
`

const workbenchSchema = `
CREATE TABLE project (project_id TEXT, project_title TEXT, project_type TEXT, project_summary TEXT, doi TEXT, funding_source TEXT, last_name TEXT, first_name TEXT, institute TEXT, department TEXT, laboratory TEXT);
CREATE TABLE study (study_id TEXT, study_title TEXT, study_type TEXT, study_summary TEXT, submit_date TEXT, project_id TEXT, last_name TEXT, first_name TEXT, institute TEXT, department TEXT, laboratory TEXT);
CREATE TABLE study_status_prod (study_id TEXT, status INTEGER);
CREATE TABLE subject (subject_id TEXT, subject_species TEXT);
CREATE TABLE metadata (mb_sample_id TEXT, study_id TEXT, subject_id TEXT)
`

func memoryDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Exec(ctx, db, schema))
	return db
}

func insert(t *testing.T, db *sql.DB, stmt string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), stmt, args...)
	require.NoError(t, err)
}

func fixtureSource(t *testing.T) *SQL {
	t.Helper()
	supp := memoryDB(t, supplementalSchema)
	insert(t, supp, `INSERT INTO organizations (id, name, type, parent_id, withheld) VALUES (1, 'Acme University', 'institute', NULL, FALSE)`)
	insert(t, supp, `INSERT INTO organizations (id, name, type, parent_id, withheld) VALUES (2, 'Chemistry', 'department', 1, FALSE)`)
	insert(t, supp, `INSERT INTO organizations (id, name, type, parent_id, withheld) VALUES (3, 'Hidden Lab', 'laboratory', 2, TRUE)`)
	insert(t, supp, `INSERT INTO people (id, display_name, email, phone, withheld) VALUES (10, NULL, 'jane@example.org', NULL, FALSE)`)
	insert(t, supp, `INSERT INTO people (id, display_name, email, phone, withheld) VALUES (11, 'Bob B. Builder', NULL, '555-0100', TRUE)`)
	insert(t, supp, `INSERT INTO names (person_id, first_name, last_name, withheld) VALUES (10, 'Jane', 'Doe', FALSE)`)
	insert(t, supp, `INSERT INTO names (person_id, first_name, last_name, withheld) VALUES (10, 'Janet', 'Doe', FALSE)`)
	insert(t, supp, `INSERT INTO names (person_id, first_name, last_name, withheld) VALUES (11, 'Bob', 'Builder', FALSE)`)
	insert(t, supp, `INSERT INTO associations VALUES (10, 2)`)
	insert(t, supp, `INSERT INTO associations VALUES (10, 3)`)
	insert(t, supp, `INSERT INTO associations VALUES (11, 1)`)
	insert(t, supp, `INSERT INTO pubmed_publications VALUES ('123', '<PubmedArticleSet/>')`)
	insert(t, supp, `INSERT INTO pubmed_authorships VALUES ('123', 10, NULL)`)
	insert(t, supp, `INSERT INTO pubmed_authorships VALUES ('123', 11, TRUE)`)
	insert(t, supp, `INSERT INTO publications VALUES ('456', 10, TRUE)`)
	insert(t, supp, `INSERT INTO publications VALUES ('789', 10, NULL)`)

	wb := memoryDB(t, workbenchSchema)
	insert(t, wb, `INSERT INTO project VALUES (?, ?, NULL, ?, NULL, NULL, ?, ?, ?, ?, ?)`,
		"PR000001\n", "Lipids", "A summary", "Doe;Roe", "Jane;Rick", "Acme University", "Chemistry", "")
	insert(t, wb, `INSERT INTO study VALUES ('ST000001', 'Study one', 'MS', NULL, '2020-01-02', 'PR000001', 'Doe', 'Jane', 'Acme University', '', '')`)
	insert(t, wb, `INSERT INTO study VALUES ('ST000002', 'Unreleased', NULL, NULL, NULL, 'PR000001', 'Doe', 'Jane', 'Acme University', '', '')`)
	insert(t, wb, `INSERT INTO study_status_prod VALUES ('ST000001', 1)`)
	insert(t, wb, `INSERT INTO study_status_prod VALUES ('ST000002', 0)`)
	insert(t, wb, `INSERT INTO subject VALUES ('SU1', 'Mus musculus')`)
	insert(t, wb, `INSERT INTO metadata VALUES ('SA000001', 'ST000001', 'SU1')`)
	insert(t, wb, `INSERT INTO metadata VALUES ('SA000002', 'ST000009', 'SU1')`)

	return NewSQL(wb, supp)
}

func TestSQLSupplementalRecords(t *testing.T) {
	ctx := context.Background()
	src := fixtureSource(t)

	orgs, err := src.Organizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, domain.Organization{ID: "2", Name: "Chemistry", Type: domain.OrgDepartment, ParentID: "1"}, orgs[1])
	assert.Empty(t, orgs[0].ParentID)

	people, err := src.People(ctx)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Jane", people[0].FirstName, "first visible name wins")
	assert.Equal(t, "jane@example.org", people[0].Email)
	assert.False(t, people[0].Withheld)
	assert.True(t, people[1].Withheld)
	assert.Equal(t, "Bob B. Builder", people[1].DisplayName)

	assocs, err := src.Associations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Association{{PersonID: "10", OrganizationID: "2"}}, assocs)

	pubs, err := src.Publications(ctx)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "123", pubs[0].PMID)
	assert.Equal(t, []byte("<PubmedArticleSet/>"), pubs[0].XML)

	authors, err := src.Authorships(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"123": {"10"}}, authors)

	overrides, err := src.PublicationOverrides(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PublicationOverride{
		{PMID: "456", PersonID: "10", Include: true},
		{PMID: "789", PersonID: "10", Include: false},
	}, overrides)
}

func TestSQLPublicationOverridesFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM publications").WillReturnRows(
		sqlmock.NewRows([]string{"pmid", "person_id", "include"}).
			AddRow("31234567\n", "7", true).
			AddRow("30000001", "7", false))

	overrides, err := NewSQL(nil, db).PublicationOverrides(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PublicationOverride{
		{PMID: "31234567", PersonID: "7", Include: true},
		{PMID: "30000001", PersonID: "7"},
	}, overrides)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLWorkbenchRecords(t *testing.T) {
	ctx := context.Background()
	src := fixtureSource(t)

	projects, err := src.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, ProjectRecord{
		ID:          "PR000001",
		Title:       "Lipids",
		Summary:     "A summary",
		LastNames:   "Doe;Roe",
		FirstNames:  "Jane;Rick",
		Institutes:  "Acme University",
		Departments: "Chemistry",
	}, projects[0])

	studies, err := src.Studies(ctx)
	require.NoError(t, err)
	require.Len(t, studies, 1, "only released studies")
	assert.Equal(t, "ST000001", studies[0].ID)
	assert.Equal(t, "2020-01-02", studies[0].SubmitDate)
	assert.Equal(t, "PR000001", studies[0].ProjectID)

	datasets, err := src.Datasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []DatasetRecord{
		{SampleID: "SA000001", StudyID: "ST000001", Species: "Mus musculus"},
		{SampleID: "SA000002", StudyID: "ST000009", Species: "Mus musculus"},
	}, datasets)
}

func TestSQLQueryErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectQuery("FROM organizations").WillReturnError(errors.New("relation does not exist"))

	_, err = NewSQL(db, db).Organizations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query organizations")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLScanErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectQuery("FROM metadata").WillReturnRows(
		sqlmock.NewRows([]string{"mb_sample_id", "study_id"}).AddRow("SA1", "ST1"))

	_, err = NewSQL(db, db).Datasets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan datasets")
}

func TestSQLRowErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectQuery("FROM project").WillReturnRows(
		sqlmock.NewRows([]string{
			"project_id", "project_title", "project_type", "project_summary", "doi", "funding_source",
			"last_name", "first_name", "institute", "department", "laboratory",
		}).
			AddRow("PR1", "T", "", "", "", "", "", "", "", "", "").
			RowError(0, errors.New("connection reset")))

	_, err = NewSQL(db, db).Projects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterate projects")
}

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	src := &Static{
		Persons:     []domain.Person{{ID: "1", FirstName: "A", LastName: "B"}},
		DatasetRows: []DatasetRecord{{SampleID: "SA1"}},
	}
	people, err := src.People(ctx)
	require.NoError(t, err)
	assert.Len(t, people, 1)
	datasets, err := src.Datasets(ctx)
	require.NoError(t, err)
	assert.Len(t, datasets, 1)
	orgs, err := src.Organizations(ctx)
	require.NoError(t, err)
	assert.Empty(t, orgs)
}
