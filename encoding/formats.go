package encoding

import (
	"bytes"
	"context"
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/metaschema"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/rdf"
	"github.com/illuscio-dev/spanmarshal-go/schemastore"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/xmldoc"
	"github.com/illuscio-dev/spanmarshal-go/xsd"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Records values dropped by the recursion guard during one encode.
func (engine *SpanEngine) recordOmitted(mimeType mimetype.MimeType, session *serializer.Session) {
	if omitted := session.Omitted(); omitted > 0 {
		engine.metrics.AddOmitted(string(mimeType), omitted)
		engine.logger.Info(
			"recursive values omitted",
			zap.String("mimetype", string(mimeType)),
			zap.Int("omitted", omitted),
			zap.String("session", session.ID.String()),
		)
	}
}

func (engine *SpanEngine) schemaKey(mimeType mimetype.MimeType, t reflect.Type) string {
	return schemastore.Key(string(mimeType), t.PkgPath(), t.String(), engine.configFingerprint)
}

// Writes the schema document of content, served from the schema store when the
// document only depends on the content's type.
func (engine *SpanEngine) writeSchema(
	mimeType mimetype.MimeType,
	content interface{},
	writer io.Writer,
	typeOnly bool,
	generate func(out io.Writer) error,
) error {
	contentType := reflect.TypeOf(content)
	if engine.schemaStore == nil || !typeOnly || contentType == nil {
		return generate(writer)
	}

	ctx := context.Background()
	key := engine.schemaKey(mimeType, contentType)

	document, err := engine.schemaStore.Get(ctx, key)
	if err == nil {
		engine.metrics.CacheLookup(true)
		if _, err := writer.Write(document); err != nil {
			return xerrors.Errorf("error writing cached schema: %w", err)
		}
		return nil
	}
	if !xerrors.Is(err, schemastore.ErrNotFound) {
		engine.logger.Warn("schema cache read failed", zap.String("key", key), zap.Error(err))
	}
	engine.metrics.CacheLookup(false)

	buffer := new(bytes.Buffer)
	if err := generate(buffer); err != nil {
		return err
	}
	if err := engine.schemaStore.Put(ctx, key, buffer.Bytes(), engine.schemaTTL); err != nil {
		engine.logger.Warn("schema cache write failed", zap.String("key", key), zap.Error(err))
	}

	if _, err := writer.Write(buffer.Bytes()); err != nil {
		return xerrors.Errorf("error writing schema: %w", err)
	}
	return nil
}

// Handled encoding to / decoding from text/plain
type textEncoder struct{}

func (handler *textEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	_, err := io.WriteString(writer, serializer.ToString(content))
	return err
}

func (handler *textEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	stringPointer, ok := contentReceiver.(*string)
	if !ok {
		return xerrors.New(
			"content receiver must be a string pointer to receive a string.",
		)
	}

	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(reader); err != nil {
		return err
	}

	*stringPointer = buffer.String()

	return nil
}

// Handles application/yaml.
type yamlEncoder struct{}

func (encoder *yamlEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	yamlEncoder := yaml.NewEncoder(writer)
	if err := yamlEncoder.Encode(content); err != nil {
		return err
	}
	return yamlEncoder.Close()
}

func (encoder *yamlEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	return yaml.NewDecoder(reader).Decode(contentReceiver)
}

// Handles the generic XML element tree.
type xmlEncoder struct{}

func (encoder *xmlEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	spanEngine := engine.(*SpanEngine)
	xmlSerializer := xmldoc.NewSerializer(
		spanEngine.config, spanEngine.resolver, spanEngine.logger,
	)

	session := xmlSerializer.NewSession()
	err := xmlSerializer.SerializeSession(session, writer, content)
	spanEngine.recordOmitted(mimetype.XML, session)
	return err
}

func (encoder *xmlEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	spanEngine := engine.(*SpanEngine)
	return xmldoc.NewParser(spanEngine.config, spanEngine.resolver).Parse(reader, contentReceiver)
}

// Writes RDF graphs in one language.
type rdfEncoder struct {
	mimeType mimetype.MimeType
	language rdf.Language
}

func newRDFEncoder(mimeType mimetype.MimeType) *rdfEncoder {
	language := rdf.NTriples
	if mimeType == mimetype.Turtle {
		language = rdf.Turtle
	}
	return &rdfEncoder{
		mimeType: mimeType,
		language: language,
	}
}

func (encoder *rdfEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	spanEngine := engine.(*SpanEngine)
	rdfSerializer := rdf.NewSerializer(
		spanEngine.config, spanEngine.resolver, spanEngine.logger, encoder.language,
	)

	session := rdfSerializer.NewSession()
	err := rdfSerializer.SerializeSession(session, writer, content)
	spanEngine.recordOmitted(encoder.mimeType, session)
	return err
}

// Writes the XML Schema documents of the XML output.
type xmlSchemaEncoder struct{}

func (encoder *xmlSchemaEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	spanEngine := engine.(*SpanEngine)
	generator := xsd.NewGenerator(spanEngine.config, spanEngine.resolver, spanEngine.logger)

	// Detected namespaces depend on the value, not only its type.
	config := spanEngine.config
	typeOnly := !(config.EnableNamespaces && config.AutoDetectNamespaces)

	return spanEngine.writeSchema(
		mimetype.XMLSchema, content, writer, typeOnly,
		func(out io.Writer) error {
			session := generator.NewSession()
			err := generator.GenerateSession(session, out, content)
			spanEngine.recordOmitted(mimetype.XMLSchema, session)
			return err
		},
	)
}

// Writes the JSON metaschema of a value's type.
type metaschemaEncoder struct{}

func (encoder *metaschemaEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	spanEngine := engine.(*SpanEngine)
	generator := metaschema.NewGenerator(spanEngine.config, spanEngine.resolver, spanEngine.logger)

	return spanEngine.writeSchema(
		mimetype.SchemaJSON, content, writer, true,
		func(out io.Writer) error {
			return generator.Generate(out, content)
		},
	)
}
