// Package rdf models subject-predicate-object statements and their N-Triples
// line rendering. A statement's text is its identity: two statements are equal
// exactly when their rendered lines are byte-identical.
package rdf

import (
	"strings"
)

// TermKind distinguishes IRI objects from literal objects.
type TermKind int

const (
	// KindIRI renders as <iri>.
	KindIRI TermKind = iota
	// KindLiteral renders as "value" with an optional ^^<datatype> suffix.
	KindLiteral
)

// Term is the object position of a statement.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // empty for plain literals and IRIs
}

// IRI returns an IRI term.
func IRI(iri string) Term { return Term{Kind: KindIRI, Value: iri} }

// Typed returns a literal carrying an explicit datatype.
func Typed(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// String returns an xsd:string literal.
func String(value string) Term { return Typed(value, XSDString) }

// DateTime returns an xsd:dateTime literal.
func DateTime(value string) Term { return Typed(value, XSDDateTime) }

// Plain returns an untyped literal.
func Plain(value string) Term { return Term{Kind: KindLiteral, Value: value} }

// Render returns the N-Triples form of the term.
func (t Term) Render() string {
	if t.Kind == KindIRI {
		return "<" + t.Value + ">"
	}
	lit := `"` + EscapeLiteral(t.Value) + `"`
	if t.Datatype != "" {
		lit += "^^<" + t.Datatype + ">"
	}
	return lit
}

// Statement is an immutable subject-predicate-object triple. Subject and
// predicate are always IRIs.
type Statement struct {
	Subject   string
	Predicate string
	Object    Term
}

// Triple builds a statement.
func Triple(subject, predicate string, object Term) Statement {
	return Statement{Subject: subject, Predicate: predicate, Object: object}
}

// Link builds a statement whose object is an IRI.
func Link(subject, predicate, object string) Statement {
	return Triple(subject, predicate, IRI(object))
}

// String renders the statement without its terminator.
func (s Statement) String() string {
	return "<" + s.Subject + "> <" + s.Predicate + "> " + s.Object.Render()
}

// Line renders the statement as one N-Triples record, terminator included.
func (s Statement) Line() string {
	return s.String() + " .\n"
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// EscapeLiteral escapes the characters that would otherwise break a quoted
// literal or the one-record-per-line layout.
func EscapeLiteral(value string) string {
	return literalEscaper.Replace(value)
}
