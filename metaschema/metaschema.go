/*
Package metaschema projects the type metadata of a value into a small JSON document:

	{"type": "object", "class": "Person", "properties": {"name": {"type": "string", ...}}}

Self-referencing types are described once; repeated references only carry their type
and class.
*/
package metaschema

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

// Schema describes one type.
type Schema struct {
	Type       string     `json:"type"`
	Class      string     `json:"class"`
	Swap       string     `json:"swap,omitempty"`
	Items      *Schema    `json:"items,omitempty"`
	Values     *Schema    `json:"values,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

// Property is a named bean property schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties keep their declaration order when marshalled.
type Properties []Property

func (properties Properties) MarshalJSON() ([]byte, error) {
	buffer := bytes.Buffer{}
	buffer.WriteByte('{')
	for index, property := range properties {
		if index > 0 {
			buffer.WriteByte(',')
		}
		name, err := json.Marshal(property.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(property.Schema)
		if err != nil {
			return nil, err
		}
		buffer.Write(name)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// Get returns the schema of the property named name, or nil.
func (properties Properties) Get(name string) *Schema {
	for _, property := range properties {
		if property.Name == name {
			return property.Schema
		}
	}
	return nil
}

func typeName(meta *classmeta.ClassMeta) string {
	switch meta.Kind() {
	case classmeta.KindString, classmeta.KindChar, classmeta.KindURI:
		return "string"
	case classmeta.KindNumber:
		return "number"
	case classmeta.KindBoolean:
		return "boolean"
	case classmeta.KindBean, classmeta.KindMap:
		return "object"
	case classmeta.KindCollection, classmeta.KindArray:
		return "array"
	case classmeta.KindNull:
		return "null"
	}
	return "any"
}

// Generator writes metaschema documents.
type Generator struct {
	config   serializer.Config
	resolver classmeta.Resolver
	logger   *zap.Logger
}

// NewGenerator returns a generator. Recursion is always omitted, whatever config says.
func NewGenerator(
	config serializer.Config, resolver classmeta.Resolver, logger *zap.Logger,
) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config:   config.WithRecursion(serializer.RecursionOmit),
		resolver: resolver,
		logger:   logger,
	}
}

func (generator *Generator) NewSession() *serializer.Session {
	return serializer.NewSession(generator.config, generator.resolver, generator.logger)
}

// Describe builds the schema of meta.
func (generator *Generator) Describe(
	session *serializer.Session, meta *classmeta.ClassMeta,
) (*Schema, error) {
	return generator.describe(session, meta, serializer.RootName)
}

func (generator *Generator) describe(
	session *serializer.Session, meta *classmeta.ClassMeta, name string,
) (*Schema, error) {
	reached, err := session.PushMeta(name, meta)
	defer session.Pop()
	if err != nil {
		return nil, err
	}

	serialized := meta.SerializedClassMeta()
	schema := &Schema{
		Type:  typeName(serialized),
		Class: meta.Name(),
	}
	if swap := meta.Swap(); swap != nil {
		schema.Swap = classmeta.SwapName(swap)
	}
	if reached == nil {
		return schema, nil
	}

	switch {
	case serialized.IsCollectionOrArray() && serialized.ElementType() != nil:
		schema.Items, err = generator.describe(session, serialized.ElementType(), "items")
	case serialized.IsMap() && serialized.ValueType() != nil:
		schema.Values, err = generator.describe(session, serialized.ValueType(), "values")
	case serialized.IsBean():
		schema.Properties = make(Properties, 0, len(serialized.Properties()))
		for _, property := range serialized.Properties() {
			var propertySchema *Schema
			propertySchema, err = generator.describe(session, property.ClassMeta(), property.Name())
			if err != nil {
				break
			}
			schema.Properties = append(schema.Properties, Property{
				Name:   property.Name(),
				Schema: propertySchema,
			})
		}
	}
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// Generate writes the metaschema of value's type to out.
func (generator *Generator) Generate(out io.Writer, value interface{}) error {
	return generator.GenerateSession(generator.NewSession(), out, value)
}

// GenerateSession writes the metaschema of value's type to out using an existing
// session.
func (generator *Generator) GenerateSession(
	session *serializer.Session, out io.Writer, value interface{},
) error {
	schema, err := generator.Describe(session, generator.resolver.ClassMetaForObject(value))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	if generator.config.UseIndentation {
		encoder.SetIndent("", "\t")
	}
	if err := encoder.Encode(schema); err != nil {
		return spanerrors.SerializeError.New("error writing metaschema", err)
	}
	return nil
}
