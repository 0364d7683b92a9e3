package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"m3c/pkg/rdf"
)

// Category names double as output file stems.
const (
	CategoryOrganizations = "orgs"
	CategoryPeople        = "people"
	CategoryPhotos        = "photos"
	CategoryPublications  = "pubs"
	CategoryTools         = "tools"
	CategoryProjects      = "projects"
	CategoryStudies       = "studies"
	CategoryDatasets      = "datasets"
)

// Categories lists every category in emission order.
var Categories = []string{
	CategoryOrganizations,
	CategoryPhotos,
	CategoryPublications,
	CategoryTools,
	CategoryProjects,
	CategoryDatasets,
	CategoryStudies,
	CategoryPeople,
}

// DatedDir returns <root>/YYYY/MM/YYYY_MM_DD for t.
func DatedDir(root string, t time.Time) string {
	return filepath.Join(root, t.Format("2006"), t.Format("01"), t.Format("2006_01_02"))
}

// categoryFile returns the statement file of a category.
func categoryFile(dir, category string) string {
	return filepath.Join(dir, category+".nt")
}

// appendStatements appends statements to a category file, creating it when
// needed. A rerun on the same day therefore accumulates duplicate lines,
// which the differencer collapses.
func appendStatements(dir, category string, statements []rdf.Statement) error {
	name := categoryFile(dir, category)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if _, err := rdf.WriteStatements(f, statements); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// ReadEmbargoList reads one study ID per line. An empty path means no
// studies are embargoed.
func ReadEmbargoList(path string) (map[string]bool, error) {
	out := make(map[string]bool)
	if path == "" {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read embargo list: %w", err)
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			out[id] = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read embargo list: %w", err)
	}
	return out, nil
}
