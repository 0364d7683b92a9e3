package domain

import (
	"fmt"
	"strings"

	"m3c/pkg/rdf"
)

// ToolLicense describes a tool's license. Both fields must be set for the
// license to be rendered.
type ToolLicense struct {
	Kind string
	URL  string
}

// ToolAuthor is a credited developer. URI is filled in by identity matching.
type ToolAuthor struct {
	Name  string
	Email string
	URI   string
}

// Tool is a software tool published by the consortium.
type Tool struct {
	ID          string
	Name        string
	Description string
	URL         string
	Tags        []string
	License     ToolLicense
	Authors     []ToolAuthor
	PMID        string

	encodedID string
}

// ErrInvalidToolID reports a tool ID containing characters the URI scheme
// cannot encode.
type ErrInvalidToolID struct {
	ID   string
	Char rune
}

func (e ErrInvalidToolID) Error() string {
	return fmt.Sprintf("unhandled character %q in tool id %q", e.Char, e.ID)
}

var toolIDEncoder = strings.NewReplacer(
	"_", "__",
	"-", "_d",
	"/", "_s",
	"?", "_p",
	"=", "_e",
)

var toolIDDecoder = strings.NewReplacer(
	"__", "_",
	"_d", "-",
	"_s", "/",
	"_p", "?",
	"_e", "=",
)

// EncodeToolID maps a tool ID onto the URI-safe alphabet. The mapping is
// reversible by DecodeToolID.
func EncodeToolID(id string) (string, error) {
	encoded := toolIDEncoder.Replace(id)
	for _, r := range encoded {
		if !isToolIDChar(r) {
			return "", ErrInvalidToolID{ID: id, Char: r}
		}
	}
	return encoded, nil
}

// DecodeToolID reverses EncodeToolID.
func DecodeToolID(encoded string) string {
	return toolIDDecoder.Replace(encoded)
}

func isToolIDChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '/':
		return true
	}
	return false
}

// NewTool validates a tool definition and precomputes its URI encoding.
func NewTool(t Tool) (*Tool, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return nil, ErrMissingField{Entity: EntityTool, Field: "id"}
	}
	t.Name = strings.TrimSpace(strings.ReplaceAll(t.Name, "\n", " "))
	t.Description = strings.TrimSpace(t.Description)
	t.URL = strings.TrimSpace(t.URL)
	required := []struct{ field, value string }{
		{"name", t.Name},
		{"description", t.Description},
		{"url", t.URL},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, ErrMissingField{Entity: EntityTool, ID: t.ID, Field: r.field}
		}
	}
	t.License.Kind = strings.TrimSpace(t.License.Kind)
	t.License.URL = strings.TrimSpace(t.License.URL)
	for i := range t.Authors {
		t.Authors[i].Name = strings.TrimSpace(t.Authors[i].Name)
		t.Authors[i].Email = strings.TrimSpace(t.Authors[i].Email)
		t.Authors[i].URI = strings.TrimSpace(t.Authors[i].URI)
	}
	encoded, err := EncodeToolID(t.ID)
	if err != nil {
		return nil, err
	}
	t.encodedID = encoded
	return &t, nil
}

func (*Tool) entity() {}

// EntityType implements Entity.
func (*Tool) EntityType() EntityType { return EntityTool }

// URI returns the tool's URI.
func (t *Tool) URI(namespace string) string { return namespace + "t" + t.encodedID }

// UnresolvedAuthors lists the names of authors without a URI.
func (t *Tool) UnresolvedAuthors() []string {
	var names []string
	for _, a := range t.Authors {
		if a.URI == "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Triples implements Entity. A tool with any unresolved author renders
// nothing at all.
func (t *Tool) Triples(namespace string) []rdf.Statement {
	if len(t.UnresolvedAuthors()) > 0 {
		return nil
	}
	uri := t.URI(namespace)
	out := []rdf.Statement{
		rdf.Link(uri, rdf.Type, rdf.M3CTool),
		rdf.Triple(uri, rdf.Label, rdf.Plain(t.Name)),
		rdf.Triple(uri, rdf.M3CSummary, rdf.Plain(t.Description)),
		rdf.Triple(uri, rdf.M3CHomepage, rdf.Plain(t.URL)),
	}
	if t.License.Kind != "" && t.License.URL != "" {
		out = append(out,
			rdf.Triple(uri, rdf.M3CLicenseType, rdf.Plain(t.License.Kind)),
			rdf.Triple(uri, rdf.M3CLicenseURL, rdf.Plain(t.License.URL)),
		)
	}
	for _, a := range t.Authors {
		out = append(out,
			rdf.Link(uri, rdf.M3CDevelopedBy, a.URI),
			rdf.Link(a.URI, rdf.M3CDeveloperOf, uri),
		)
	}
	for _, tag := range t.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out = append(out, rdf.Triple(uri, rdf.M3CTag, rdf.Plain(tag)))
	}
	return out
}
