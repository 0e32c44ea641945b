package xsd

import (
	"io"
	"reflect"
	"regexp"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

var targetNamespacePattern = regexp.MustCompile(`targetNamespace=['"]([^'"]+)['"]`)

// Generator writes XML Schema documents describing the element-tree output of a value
// or a type.
type Generator struct {
	config   serializer.Config
	resolver classmeta.Resolver
	logger   *zap.Logger
}

// NewGenerator returns a schema generator. logger may be nil.
func NewGenerator(
	config serializer.Config, resolver classmeta.Resolver, logger *zap.Logger,
) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config:   config,
		resolver: resolver,
		logger:   logger,
	}
}

func (generator *Generator) NewSession() *serializer.Session {
	return serializer.NewSession(generator.config, generator.resolver, generator.logger)
}

func (generator *Generator) defaultNamespace() *classmeta.Namespace {
	return classmeta.FirstNamespace(generator.config.DefaultNamespace, serializer.CoreNamespace)
}

// Generate writes the schemas for value to out.
func (generator *Generator) Generate(out io.Writer, value interface{}) error {
	return generator.GenerateSession(generator.NewSession(), out, value)
}

// GenerateSession writes the schemas for value to out. The session is used to walk
// value when namespaces are detected automatically.
func (generator *Generator) GenerateSession(
	session *serializer.Session, out io.Writer, value interface{},
) error {
	namespaces := generator.config.Namespaces
	if generator.config.EnableNamespaces && generator.config.AutoDetectNamespaces {
		detected, err := DetectNamespaces(session, value)
		if err != nil {
			return err
		}
		namespaces = appendNamespaces(namespaces, detected...)
	}

	return generator.write(out, generator.resolver.ClassMetaForObject(value), namespaces)
}

// GenerateType writes the schemas for values of type t.
func (generator *Generator) GenerateType(out io.Writer, t reflect.Type) error {
	meta := generator.resolver.ClassMetaFor(t)
	namespaces := generator.config.Namespaces
	if generator.config.EnableNamespaces && generator.config.AutoDetectNamespaces {
		namespaces = appendNamespaces(namespaces, TypeNamespaces(meta)...)
	}
	return generator.write(out, meta, namespaces)
}

func (generator *Generator) write(
	out io.Writer, meta *classmeta.ClassMeta, namespaces []*classmeta.Namespace,
) error {
	schemas := NewSchemas(generator.config, generator.defaultNamespace(), namespaces, generator.logger)
	if err := schemas.Process(meta); err != nil {
		return err
	}
	if _, err := schemas.WriteTo(out); err != nil {
		return spanerrors.SerializeError.New("error writing xml schema", err)
	}
	return nil
}

func appendNamespaces(
	namespaces []*classmeta.Namespace, more ...*classmeta.Namespace,
) []*classmeta.Namespace {
	combined := make([]*classmeta.Namespace, 0, len(namespaces)+len(more))
	combined = append(combined, namespaces...)
	for _, namespace := range more {
		known := false
		for _, existing := range combined {
			known = known || existing.Same(namespace)
		}
		if !known {
			combined = append(combined, namespace)
		}
	}
	return combined
}
