package rdf

import (
	"bufio"
	"fmt"
	"io"
)

// WriteStatements writes each statement as one N-Triples line and returns
// the number of lines written.
func WriteStatements(w io.Writer, statements []Statement) (int, error) {
	bw := bufio.NewWriter(w)
	for i, s := range statements {
		if _, err := bw.WriteString(s.Line()); err != nil {
			return i, fmt.Errorf("write statement: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush statements: %w", err)
	}
	return len(statements), nil
}
