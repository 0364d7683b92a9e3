package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3c/internal/infra/database/sqlite"
	"m3c/internal/snapshot"
)

const supplementalSchema = `
CREATE TABLE organizations (id INTEGER PRIMARY KEY, name TEXT, type TEXT, parent_id INTEGER, withheld BOOLEAN DEFAULT FALSE);
CREATE TABLE people (id INTEGER PRIMARY KEY, display_name TEXT, email TEXT, phone TEXT, withheld BOOLEAN DEFAULT FALSE);
CREATE TABLE names (person_id INTEGER, first_name TEXT, last_name TEXT, withheld BOOLEAN DEFAULT FALSE);
CREATE TABLE associations (person_id INTEGER, organization_id INTEGER);
CREATE TABLE pubmed_publications (pmid TEXT, xml BLOB);
CREATE TABLE pubmed_authorships (pmid TEXT, person_id INTEGER, excluded BOOLEAN);
CREATE TABLE publications (pmid TEXT, person_id INTEGER, include BOOLEAN);
INSERT INTO publications VALUES ('42', 7, TRUE);
INSERT INTO publications VALUES ('13', 7, FALSE);
INSERT INTO organizations (id, name, type) VALUES (1, 'Acme University', 'institute');
INSERT INTO people (id, email) VALUES (7, 'jane@example.org');
INSERT INTO names (person_id, first_name, last_name) VALUES (7, 'Jane', 'Doe');
INSERT INTO associations VALUES (7, 1)
`

const workbenchSchema = `
CREATE TABLE project (project_id TEXT, project_title TEXT, project_type TEXT, project_summary TEXT, doi TEXT, funding_source TEXT, last_name TEXT, first_name TEXT, institute TEXT, department TEXT, laboratory TEXT);
CREATE TABLE study (study_id TEXT, study_title TEXT, study_type TEXT, study_summary TEXT, submit_date TEXT, project_id TEXT, last_name TEXT, first_name TEXT, institute TEXT, department TEXT, laboratory TEXT);
CREATE TABLE study_status_prod (study_id TEXT, status INTEGER);
CREATE TABLE subject (subject_id TEXT, subject_species TEXT);
CREATE TABLE metadata (mb_sample_id TEXT, study_id TEXT, subject_id TEXT);
INSERT INTO project VALUES ('PR000001', 'Lipids', NULL, 'About lipids', NULL, NULL, 'Doe', 'Jane', 'Acme University', NULL, NULL);
INSERT INTO study VALUES ('ST000001', 'One', 'MS', NULL, '2020-01-02', 'PR000001', 'Doe', 'Jane', 'Acme University', NULL, NULL);
INSERT INTO study_status_prod VALUES ('ST000001', 1);
INSERT INTO subject VALUES ('SU1', 'Mus musculus');
INSERT INTO metadata VALUES ('SA000001', 'ST000001', 'SU1')
`

func createDB(t *testing.T, path, script string) {
	t.Helper()
	db, err := sql.Open(sqlite.DriverName, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, sqlite.Exec(context.Background(), db, script))
}

func writeConfig(t *testing.T, dir string, extra ...string) string {
	t.Helper()
	wb := filepath.Join(dir, "workbench.db")
	supp := filepath.Join(dir, "supplemental.db")
	createDB(t, wb, workbenchSchema)
	createDB(t, supp, supplementalSchema)
	cfg := strings.Join([]string{
		"namespace: http://vivo.metabolomics.info/individual/",
		"output_dir: " + filepath.Join(dir, "data_out"),
		"workbench: {driver: sqlite, dsn: " + wb + "}",
		"supplemental: {driver: sqlite, dsn: " + supp + "}",
		"photos: {driver: memory}",
		"metrics: {textfile: " + filepath.Join(dir, "m3c.prom") + "}",
		"log: {env: development, level: error}",
	}, "\n") + "\n" + strings.Join(extra, "\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestGenerateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "--config", cfgPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "orgs: 1")
	assert.Contains(t, out, "people: 1")
	assert.Contains(t, out, "projects: 1")
	assert.Contains(t, out, "studies: 1")
	assert.Contains(t, out, "datasets: 1")

	matches, err := filepath.Glob(filepath.Join(dir, "data_out", "*", "*", "*", "studies.nt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	studies, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(studies), "Mus musculus")

	prom, err := os.ReadFile(filepath.Join(dir, "m3c.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `m3c_entities_emitted_total{category="studies"} 1`)
}

func TestGenerateReportsFatalHint(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	db, err := sql.Open(sqlite.DriverName, filepath.Join(dir, "workbench.db"))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE project SET institute = 'Nowhere College'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "-c", cfgPath}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Nowhere College")
	assert.Contains(t, stderr.String(), `Detail: project=PR000001 institute="Nowhere College"`)
	assert.Contains(t, stderr.String(), "Hint:")
}

func TestGenerateConfigErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "--config", filepath.Join(t.TempDir(), "none.yaml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "read config")
}

func TestDiffCommand(t *testing.T) {
	prev, cur := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(prev, "orgs.nt"), []byte("<a> <b> <c> .\n<a> <b> <d> .\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cur, "orgs.nt"), []byte("<a> <b> <c> .\n<a> <b> <e> .\n"), 0o600))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, cli([]string{"diff", prev, cur}, &stdout, &stderr), stderr.String())
	assert.Equal(t, "add: 1\nsub: 1\n", stdout.String())

	add, err := os.ReadFile(filepath.Join(cur, snapshot.AddFile))
	require.NoError(t, err)
	assert.Equal(t, "<a> <b> <e> .\n", string(add))
	sub, err := os.ReadFile(filepath.Join(cur, snapshot.SubFile))
	require.NoError(t, err)
	assert.Equal(t, "<a> <b> <d> .\n", string(sub))

	assert.Equal(t, 1, cli([]string{"diff", prev}, &stdout, &stderr))
}

func TestVersionAndMain(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, cli([]string{"version"}, &stdout, &stderr))
	assert.Equal(t, appName+" version "+Version+"\n", stdout.String())

	var codes []int
	old, oldArgs := exitFunc, os.Args
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc, os.Args = old, oldArgs }()
	os.Args = []string{appName, "version"}
	main()
	os.Args = []string{appName, "no-such-command"}
	main()
	assert.Equal(t, []int{0, 1}, codes)
}

const efetchXML = `<PubmedArticleSet>
<PubmedArticle><MedlineCitation><PMID>31234567</PMID><Article>
<Journal><JournalIssue><PubDate><Year>2020</Year></PubDate></JournalIssue><Title>cell</Title></Journal>
<ArticleTitle>Mouse lipids</ArticleTitle>
</Article></MedlineCitation></PubmedArticle>
<PubmedArticle><MedlineCitation><PMID>42</PMID><Article>
<Journal><JournalIssue><PubDate><Year>2019</Year></PubDate></JournalIssue><Title>cell</Title></Journal>
<ArticleTitle>Curated lipids</ArticleTitle>
</Article></MedlineCitation></PubmedArticle>
</PubmedArticleSet>`

func pubmedServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/esearch":
			requests = append(requests, "term="+q.Get("term"))
			_, _ = w.Write([]byte(`<eSearchResult><IdList><Id>31234567</Id><Id>13</Id></IdList></eSearchResult>`))
		case "/efetch":
			requests = append(requests, "id="+q.Get("id"))
			_, _ = w.Write([]byte(efetchXML))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestGeneratePersonSearchesPubMed(t *testing.T) {
	dir := t.TempDir()
	srv, requests := pubmedServer(t)
	cfgPath := writeConfig(t, dir,
		"pubmed: {base_url: '"+srv.URL+"/efetch', search_url: '"+srv.URL+"/esearch'}")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "--config", cfgPath, "--person", "7"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "pubs: 2")
	assert.NotContains(t, stdout.String(), "studies:")
	assert.Equal(t, []string{"term=Doe, Jane [Full Author Name]", "id=31234567,42"}, *requests)

	matches, err := filepath.Glob(filepath.Join(dir, "data_out", "*", "*", "*", "7_pubs.nt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	pubs, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(pubs), "Curated lipids")
	assert.Contains(t, string(pubs), "Mouse lipids")

	others, err := filepath.Glob(filepath.Join(dir, "data_out", "*", "*", "*", "studies.nt"))
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestGenerateSearchFromConfig(t *testing.T) {
	dir := t.TempDir()
	srv, requests := pubmedServer(t)
	cfgPath := writeConfig(t, dir,
		"pubmed: {search: true, base_url: '"+srv.URL+"/efetch', search_url: '"+srv.URL+"/esearch'}")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "--config", cfgPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "pubs: 2")
	assert.Contains(t, stdout.String(), "studies: 1")
	assert.Len(t, *requests, 2)
}

func TestGeneratePersonExcludesDiff(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := cli([]string{"generate", "--person", "7", "--diff", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "none of the others can be")
}
