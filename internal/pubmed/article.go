// Package pubmed parses PubMed efetch documents and fetches them from the
// NCBI E-utilities service.
package pubmed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"m3c/pkg/domain"
)

// ErrNoArticle is returned for a document without a PubmedArticle.
var ErrNoArticle = errors.New("pubmed: no article in document")

// text collects every character run inside an element, so inline markup
// such as <i> in titles is flattened.
type text string

func (t *text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	*t = text(strings.TrimSpace(b.String()))
	return nil
}

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title   text `xml:"ArticleTitle"`
			Journal struct {
				Title string `xml:"Title"`
				Issue struct {
					Volume  string `xml:"Volume"`
					Issue   string `xml:"Issue"`
					PubDate struct {
						Year        string `xml:"Year"`
						MedlineDate string `xml:"MedlineDate"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Pagination struct {
				MedlinePgn string `xml:"MedlinePgn"`
			} `xml:"Pagination"`
			Authors []Author `xml:"AuthorList>Author"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	Data struct {
		IDs []struct {
			Type  string `xml:"IdType,attr"`
			Value string `xml:",chardata"`
		} `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// Author is one entry of an article's author list. Consortium authors carry
// only CollectiveName.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// Name returns "ForeName LastName", or the collective name.
func (a Author) Name() string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	return strings.TrimSpace(strings.TrimSpace(a.ForeName) + " " + strings.TrimSpace(a.LastName))
}

func (a Author) cited() string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	return strings.TrimSpace(a.LastName) + ", " + strings.TrimSpace(a.Initials) + "."
}

// Article is the part of a PubMed record the graph uses.
type Article struct {
	PMID    string
	Title   string
	Year    string
	DOI     string
	Journal string
	Volume  string
	Issue   string
	Pages   string
	Authors []Author
}

// Parse reads the first article of an efetch document.
func Parse(data []byte) (Article, error) {
	set, err := unmarshalSet(data)
	if err != nil {
		return Article{}, err
	}
	if len(set.Articles) == 0 {
		return Article{}, ErrNoArticle
	}
	return set.Articles[0].article()
}

// ParseAll reads every article of an efetch document. Articles that cannot
// be read are left out and their errors joined into the returned error, so
// callers may use the articles and log the rest.
func ParseAll(data []byte) ([]Article, error) {
	set, err := unmarshalSet(data)
	if err != nil {
		return nil, err
	}
	out := make([]Article, 0, len(set.Articles))
	var errs []error
	for _, raw := range set.Articles {
		a, err := raw.article()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}

func unmarshalSet(data []byte) (articleSet, error) {
	var set articleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return articleSet{}, fmt.Errorf("parse pubmed xml: %w", err)
	}
	return set, nil
}

func (raw pubmedArticle) article() (Article, error) {
	c := raw.Citation
	a := Article{
		PMID:    strings.TrimSpace(c.PMID),
		Title:   string(c.Article.Title),
		Journal: strings.TrimSpace(c.Article.Journal.Title),
		Volume:  strings.TrimSpace(c.Article.Journal.Issue.Volume),
		Issue:   strings.TrimSpace(c.Article.Journal.Issue.Issue),
		Pages:   strings.TrimSpace(c.Article.Pagination.MedlinePgn),
		Authors: c.Article.Authors,
	}
	year, err := pubYear(c.Article.Journal.Issue.PubDate.Year, c.Article.Journal.Issue.PubDate.MedlineDate)
	if err != nil {
		return Article{}, fmt.Errorf("pmid %s: %w", a.PMID, err)
	}
	a.Year = year
	for _, id := range raw.Data.IDs {
		if id.Type == "doi" {
			a.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	if a.PMID == "" {
		return Article{}, fmt.Errorf("parse pubmed xml: %w", ErrNoArticle)
	}
	return a, nil
}

// pubYear reads Year, or the leading year of a free-form MedlineDate such
// as "1998 Dec-1999 Jan".
func pubYear(year, medline string) (string, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		medline = strings.TrimSpace(medline)
		if medline == "" {
			return "", nil
		}
		if len(medline) < 4 {
			return "", fmt.Errorf("medline date %q has no year", medline)
		}
		year = medline[:4]
	}
	n, err := strconv.Atoi(year)
	if err != nil || n <= 1900 || n >= 3000 {
		return "", fmt.Errorf("publication year %q out of range", year)
	}
	return year, nil
}

var titleCase = cases.Title(language.Und)

// Citation renders the reference line:
//
//	Doe, J., Roe, R. (2020). Title. Journal Title, 12(3), 45-67. doi:10.1/x
func (a Article) Citation() string {
	var b strings.Builder
	names := make([]string, 0, len(a.Authors))
	for _, author := range a.Authors {
		names = append(names, author.cited())
	}
	b.WriteString(strings.Join(names, ", "))
	if a.Year != "" {
		b.WriteString(" (" + a.Year + "). ")
	} else if len(names) > 0 {
		b.WriteString(". ")
	}
	b.WriteString(a.Title)
	if strings.HasSuffix(a.Title, ".") {
		b.WriteString(" ")
	} else {
		b.WriteString(". ")
	}
	if a.Journal != "" {
		b.WriteString(titleCase.String(a.Journal))
		if a.Volume != "" || a.Issue != "" {
			b.WriteString(", " + a.Volume)
			if a.Issue != "" {
				b.WriteString("(" + a.Issue + ")")
			}
		}
		if a.Pages != "" {
			b.WriteString(", " + a.Pages)
		}
		b.WriteString(". ")
	}
	if a.DOI != "" {
		b.WriteString("doi:" + a.DOI)
	}
	return strings.TrimSpace(b.String())
}

// Publication converts the article into a graph publication without
// authors.
func (a Article) Publication() *domain.Publication {
	return &domain.Publication{
		PMID:     a.PMID,
		Title:    a.Title,
		Year:     a.Year,
		DOI:      a.DOI,
		Citation: a.Citation(),
	}
}

// ErrPMIDMismatch reports a stored document filed under the wrong PMID.
type ErrPMIDMismatch struct {
	Want, Got string
}

func (e ErrPMIDMismatch) Error() string {
	return fmt.Sprintf("pubmed document for %s describes %s", e.Want, e.Got)
}

// PublicationFromXML parses a stored document and checks it describes pmid.
func PublicationFromXML(pmid string, data []byte) (*domain.Publication, error) {
	a, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if a.PMID != pmid {
		return nil, ErrPMIDMismatch{Want: pmid, Got: a.PMID}
	}
	return a.Publication(), nil
}
