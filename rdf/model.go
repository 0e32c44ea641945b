package rdf

import (
	"strconv"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
)

// Well known vocabularies.
const (
	RDFURI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDURI = "http://www.w3.org/2001/XMLSchema#"
)

var (
	RDFNamespace = classmeta.NewNamespace("rdf", RDFURI)
	XSDNamespace = classmeta.NewNamespace("xsd", XSDURI)

	RDFType  = IRI(RDFURI + "type")
	RDFFirst = IRI(RDFURI + "first")
	RDFRest  = IRI(RDFURI + "rest")
	RDFSeq   = IRI(RDFURI + "Seq")
	RDFBag   = IRI(RDFURI + "Bag")
	// RDFNil terminates lists and stands in for null values.
	RDFNil = IRI(RDFURI + "nil")
)

// RDFMember returns the container membership property rdf:_index.
func RDFMember(index int) Term {
	return IRI(RDFURI + "_" + strconv.Itoa(index))
}

// TermKind tells IRIs, blank nodes and literals apart.
type TermKind int

const (
	KindIRI TermKind = iota
	KindBlank
	KindLiteral
)

// Term is an RDF node or predicate.
type Term struct {
	Kind TermKind
	// IRI, blank node label or lexical form.
	Value string
	// Datatype IRI of a typed literal. Empty for plain literals.
	Datatype string
}

func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

func TypedLiteral(value string, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

func (term Term) IsIRI() bool     { return term.Kind == KindIRI }
func (term Term) IsBlank() bool   { return term.Kind == KindBlank }
func (term Term) IsLiteral() bool { return term.Kind == KindLiteral }

// String renders the term in N-Triples syntax.
func (term Term) String() string {
	return ntriplesTerm(term)
}

// Triple is one statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

/*
Model is an in-memory RDF graph. Triples keep insertion order and blank node labels are
handed out from a counter, so the same input always yields the same output.
*/
type Model struct {
	triples    []Triple
	prefixes   []*classmeta.Namespace
	blankCount int
}

// NewModel returns an empty model with the rdf prefix declared.
func NewModel() *Model {
	model := &Model{}
	model.AddPrefix(RDFNamespace)
	return model
}

// Add appends a triple.
func (model *Model) Add(subject Term, predicate Term, object Term) {
	model.triples = append(model.triples, Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	})
}

// NewBlank returns a fresh blank node, labelled b1, b2 ...
func (model *Model) NewBlank() Term {
	model.blankCount++
	return Blank("b" + strconv.Itoa(model.blankCount))
}

// AddPrefix declares a namespace prefix for syntaxes that abbreviate IRIs. Repeated
// declarations of the same URI are ignored.
func (model *Model) AddPrefix(namespace *classmeta.Namespace) {
	if namespace == nil || namespace.Prefix == "" {
		return
	}
	for _, existing := range model.prefixes {
		if existing.URI == namespace.URI || existing.Prefix == namespace.Prefix {
			return
		}
	}
	model.prefixes = append(model.prefixes, namespace)
}

// Prefixes returns the declared prefixes in declaration order.
func (model *Model) Prefixes() []*classmeta.Namespace {
	return model.prefixes
}

// Triples returns the statements in insertion order.
func (model *Model) Triples() []Triple {
	return model.triples
}

// Len is the number of statements.
func (model *Model) Len() int {
	return len(model.triples)
}

// Objects returns the objects of all statements matching subject and predicate.
func (model *Model) Objects(subject Term, predicate Term) []Term {
	var objects []Term
	for _, triple := range model.triples {
		if triple.Subject == subject && triple.Predicate == predicate {
			objects = append(objects, triple.Object)
		}
	}
	return objects
}
