package rdf

import (
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

// Language is an RDF text syntax.
type Language int

const (
	NTriples Language = iota
	Turtle
)

func (language Language) String() string {
	if language == Turtle {
		return "TURTLE"
	}
	return "N-TRIPLE"
}

// ParseLanguage converts "ntriple", "n-triples" or "turtle" to a Language.
func ParseLanguage(name string) (Language, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "ntriple", "ntriples", "nt":
		return NTriples, nil
	case "turtle", "ttl":
		return Turtle, nil
	}
	return NTriples, spanerrors.ConfigurationError.Newf("unknown rdf language %q", name)
}

// Serializer writes values as RDF graphs.
type Serializer struct {
	config   serializer.Config
	resolver classmeta.Resolver
	logger   *zap.Logger
	language Language
}

// NewSerializer returns an RDF serializer for language. logger may be nil.
func NewSerializer(
	config serializer.Config,
	resolver classmeta.Resolver,
	logger *zap.Logger,
	language Language,
) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{
		config:   config,
		resolver: resolver,
		logger:   logger,
		language: language,
	}
}

func (rdfSerializer *Serializer) NewSession() *serializer.Session {
	return serializer.NewSession(rdfSerializer.config, rdfSerializer.resolver, rdfSerializer.logger)
}

func (rdfSerializer *Serializer) corePredicate(model *Model, local string) Term {
	namespace := classmeta.FirstNamespace(rdfSerializer.config.CoreNamespace, serializer.CoreNamespace)
	model.AddPrefix(namespace)
	return IRI(namespace.URI + local)
}

/*
Build converts value to a model.

A literal root is attached to a blank node through the core "value" property. With
AddRootProperty the root resource is marked with core "root" "true". With
LooseCollections each element of a top-level collection is written as its own root.
*/
func (rdfSerializer *Serializer) Build(session *serializer.Session, value interface{}) (*Model, error) {
	model := NewModel()
	walker := serializer.NewWalker(session, NewEmitter(session.Config(), model))

	meta := rdfSerializer.resolver.ClassMetaForObject(value)
	if session.Config().LooseCollections && meta.SerializedClassMeta().IsCollectionOrArray() {
		if items, ok := rdfSerializer.looseItems(value); ok {
			for _, item := range items {
				if _, err := walker.Serialize(item, nil); err != nil {
					return nil, err
				}
			}
			return model, nil
		}
	}

	node, err := walker.Serialize(value, nil)
	if err != nil {
		return nil, err
	}
	root, err := TermOf(node)
	if err != nil {
		return nil, spanerrors.SerializeError.New("invalid root node", err)
	}

	if root.IsLiteral() {
		literal := root
		root = model.NewBlank()
		model.Add(root, rdfSerializer.corePredicate(model, "value"), literal)
	}
	if session.Config().AddRootProperty {
		model.Add(root, rdfSerializer.corePredicate(model, "root"), Literal("true"))
	}
	return model, nil
}

// looseItems returns false for nil collections, which are written as rdf:nil roots.
func (rdfSerializer *Serializer) looseItems(value interface{}) ([]interface{}, bool) {
	reflected := reflect.ValueOf(value)
	for reflected.Kind() == reflect.Ptr && !reflected.IsNil() {
		reflected = reflected.Elem()
	}
	switch reflected.Kind() {
	case reflect.Array:
	case reflect.Slice:
		if reflected.IsNil() {
			return nil, false
		}
	default:
		return nil, false
	}

	items := make([]interface{}, reflected.Len())
	for index := range items {
		items[index] = reflected.Index(index).Interface()
	}
	if rdfSerializer.config.SortCollections {
		sort.SliceStable(items, func(i, j int) bool {
			return serializer.ToString(items[i]) < serializer.ToString(items[j])
		})
	}
	return items, true
}

// Serialize writes value to out.
func (rdfSerializer *Serializer) Serialize(out io.Writer, value interface{}) error {
	return rdfSerializer.SerializeSession(rdfSerializer.NewSession(), out, value)
}

// SerializeSession writes value to out using an existing session.
func (rdfSerializer *Serializer) SerializeSession(
	session *serializer.Session, out io.Writer, value interface{},
) error {
	model, err := rdfSerializer.Build(session, value)
	if err != nil {
		return err
	}

	if rdfSerializer.language == Turtle {
		err = WriteTurtle(out, model)
	} else {
		err = WriteNTriples(out, model)
	}
	if err != nil {
		return spanerrors.SerializeError.New("error writing "+rdfSerializer.language.String(), err)
	}
	return nil
}
