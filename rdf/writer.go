package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

func escapeIRI(iri string) string {
	builder := strings.Builder{}
	for _, char := range iri {
		switch {
		case char <= 0x20, strings.ContainsRune("<>\"{}|^`\\", char):
			fmt.Fprintf(&builder, "\\u%04X", char)
		default:
			builder.WriteRune(char)
		}
	}
	return builder.String()
}

func escapeLiteral(text string) string {
	builder := strings.Builder{}
	for _, char := range text {
		switch char {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			builder.WriteRune(char)
		}
	}
	return builder.String()
}

func ntriplesTerm(term Term) string {
	switch term.Kind {
	case KindIRI:
		return "<" + escapeIRI(term.Value) + ">"
	case KindBlank:
		return "_:" + term.Value
	}
	literal := `"` + escapeLiteral(term.Value) + `"`
	if term.Datatype != "" {
		literal += "^^<" + escapeIRI(term.Datatype) + ">"
	}
	return literal
}

// WriteNTriples writes one statement per line.
func WriteNTriples(out io.Writer, model *Model) error {
	writer := bufio.NewWriter(out)
	for _, triple := range model.Triples() {
		_, err := fmt.Fprintf(
			writer,
			"%v %v %v .\n",
			ntriplesTerm(triple.Subject),
			ntriplesTerm(triple.Predicate),
			ntriplesTerm(triple.Object),
		)
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}

type turtleWriter struct {
	model *Model
	used  map[string]bool
}

func isLocalName(name string) bool {
	if name == "" {
		return false
	}
	for index, char := range name {
		switch {
		case unicode.IsLetter(char), char == '_':
		case index > 0 && (unicode.IsDigit(char) || char == '-'):
		default:
			return false
		}
	}
	return true
}

// iri abbreviates an IRI with a declared prefix when the remainder is a simple local
// name.
func (turtle *turtleWriter) iri(value string) string {
	if value == RDFType.Value {
		return "a"
	}
	for _, namespace := range turtle.model.Prefixes() {
		if !strings.HasPrefix(value, namespace.URI) {
			continue
		}
		if local := strings.TrimPrefix(value, namespace.URI); isLocalName(local) {
			turtle.used[namespace.Prefix] = true
			return namespace.Prefix + ":" + local
		}
	}
	return "<" + escapeIRI(value) + ">"
}

func (turtle *turtleWriter) term(term Term, predicate bool) string {
	switch term.Kind {
	case KindIRI:
		if !predicate && term.Value == RDFType.Value {
			return "<" + escapeIRI(term.Value) + ">"
		}
		return turtle.iri(term.Value)
	case KindBlank:
		return "_:" + term.Value
	}
	literal := `"` + escapeLiteral(term.Value) + `"`
	if term.Datatype != "" {
		literal += "^^" + turtle.iri(term.Datatype)
	}
	return literal
}

// WriteTurtle writes statements grouped by subject, in order of first appearance, with
// prefix declarations for the prefixes used.
func WriteTurtle(out io.Writer, model *Model) error {
	turtle := &turtleWriter{model: model, used: make(map[string]bool)}

	var subjects []Term
	grouped := make(map[Term][]Triple)
	for _, triple := range model.Triples() {
		if _, seen := grouped[triple.Subject]; !seen {
			subjects = append(subjects, triple.Subject)
		}
		grouped[triple.Subject] = append(grouped[triple.Subject], triple)
	}

	body := strings.Builder{}
	for _, subject := range subjects {
		body.WriteString(turtle.term(subject, false))
		for index, triple := range grouped[subject] {
			if index > 0 {
				body.WriteString(" ;\n   ")
			}
			body.WriteString(" " + turtle.term(triple.Predicate, true))
			body.WriteString(" " + turtle.term(triple.Object, false))
		}
		body.WriteString(" .\n")
	}

	writer := bufio.NewWriter(out)
	for _, namespace := range model.Prefixes() {
		if !turtle.used[namespace.Prefix] {
			continue
		}
		if _, err := fmt.Fprintf(
			writer, "@prefix %v: <%v> .\n", namespace.Prefix, escapeIRI(namespace.URI),
		); err != nil {
			return err
		}
	}
	if len(turtle.used) > 0 && len(subjects) > 0 {
		if _, err := writer.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := writer.WriteString(body.String()); err != nil {
		return err
	}
	return writer.Flush()
}
