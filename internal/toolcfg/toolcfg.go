// Package toolcfg loads software tool definitions from the curated YAML
// file and the spreadsheet CSV export.
package toolcfg

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"m3c/pkg/domain"
)

// AuthorLookup finds the author names of a PubMed article.
type AuthorLookup interface {
	Authors(ctx context.Context, pmid string) []string
}

// Loader reads tool files. Individual bad tools are logged and skipped.
type Loader struct {
	logger *zap.Logger
	lookup AuthorLookup
}

// NewLoader returns a loader. lookup may be nil, in which case CSV tools
// carry no authors.
func NewLoader(logger *zap.Logger, lookup AuthorLookup) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger, lookup: lookup}
}

type yamlAuthor struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	URI   string `yaml:"uri"`
}

type yamlTool struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	URL         string       `yaml:"url"`
	Authors     []yamlAuthor `yaml:"authors"`
	License     struct {
		Kind string `yaml:"kind"`
		URL  string `yaml:"url"`
	} `yaml:"license"`
	Tags []string `yaml:"tags"`
	PMID string   `yaml:"pmid"`
}

// YAML loads tools from a mapping of tool ID to definition, in document
// order.
func (l *Loader) YAML(path string) ([]*domain.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tools yaml: %w", err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse tools yaml %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse tools yaml %s: top level must map tool ids to tools", path)
	}
	var tools []*domain.Tool
	for i := 0; i+1 < len(doc.Content); i += 2 {
		id := doc.Content[i].Value
		var raw yamlTool
		if err := doc.Content[i+1].Decode(&raw); err != nil {
			l.skip(id, err)
			continue
		}
		t := domain.Tool{
			ID:          id,
			Name:        raw.Name,
			Description: raw.Description,
			URL:         raw.URL,
			Tags:        raw.Tags,
			License:     domain.ToolLicense{Kind: raw.License.Kind, URL: raw.License.URL},
			PMID:        strings.TrimSpace(raw.PMID),
		}
		for _, a := range raw.Authors {
			t.Authors = append(t.Authors, domain.ToolAuthor{Name: a.Name, Email: a.Email, URI: a.URI})
		}
		tool, err := domain.NewTool(t)
		if err != nil {
			l.skip(id, err)
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Spreadsheet export columns.
const (
	colDescription = 1
	colTags        = 6
	colPMID        = 19
	colName        = 21
	colURL         = 24
)

// CSV loads tools from the spreadsheet export. The header row is skipped;
// the tool ID is the URL without its scheme. Rows with no URL are ignored.
// Authors come from PubMed when the PMID is numeric.
func (l *Loader) CSV(ctx context.Context, path string) ([]*domain.Tool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read tools csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse tools csv %s: %w", path, err)
	}
	var tools []*domain.Tool
	for row := 2; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse tools csv %s: %w", path, err)
		}
		if len(rec) <= colURL {
			l.logger.Warn("skipping short tools csv row", zap.Int("row", row), zap.Int("columns", len(rec)))
			continue
		}
		url := rec[colURL]
		if strings.TrimSpace(strings.ReplaceAll(url, "-", "")) == "" {
			continue
		}
		pmid := strings.TrimSpace(rec[colPMID])
		t := domain.Tool{
			ID:          stripScheme(url),
			Name:        rec[colName],
			Description: rec[colDescription],
			URL:         url,
			Tags:        strings.Split(rec[colTags], ","),
			PMID:        pmid,
		}
		if l.lookup != nil && isNumeric(pmid) {
			for _, name := range l.lookup.Authors(ctx, pmid) {
				t.Authors = append(t.Authors, domain.ToolAuthor{Name: name})
			}
		}
		tool, err := domain.NewTool(t)
		if err != nil {
			l.skip(t.ID, err)
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (l *Loader) skip(id string, err error) {
	l.logger.Warn("skipping tool, check its configuration",
		zap.String("tool", id),
		zap.Error(err))
}

func stripScheme(url string) string {
	return strings.NewReplacer("http://", "", "https://", "").Replace(url)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
