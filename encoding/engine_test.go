package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/xerrors"
)

type Name struct {
	First string
	Last  string
}

type PanickyEncoder struct{}

func (encoder *PanickyEncoder) Encode(
	handler encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	panic(xerrors.New("encode panicked"))
}

func (encoder *PanickyEncoder) Decode(
	handler encoding.ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	panic("decode panicked")
}

func createEngine(test *testing.T, options ...encoding.Option) *encoding.SpanEngine {
	engine, err := encoding.NewContentEngine(true, options...)
	require.NoError(test, err)
	return engine
}

func TestCreateEngineDefault(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(false)

	assert.Nil(err)
	assert.NotNil(engine)

	assert.NotNil(engine.JSONHandle())
	assert.NotNil(engine.BSONRegistry())
	assert.NotNil(engine.Resolver())
	assert.NotNil(engine.Logger())

	// Test that all the defaults registered appropriately.
	for _, mimeType := range []mimetype.MimeType{
		mimetype.JSON, mimetype.BSON, mimetype.YAML, mimetype.XML, mimetype.TEXT,
	} {
		assert.True(engine.Handles(mimeType), mimeType)
	}
	for _, mimeType := range []mimetype.MimeType{
		mimetype.NTriples, mimetype.Turtle, mimetype.XMLSchema, mimetype.SchemaJSON,
	} {
		assert.True(engine.HandlesEncode(mimeType), mimeType)
		assert.False(engine.HandlesDecode(mimeType), mimeType)
	}

	assert.False(engine.Handles(mimetype.MimeType("text/csv")))
	assert.False(engine.SniffType())

	assert.Equal(
		[]mimetype.MimeType{
			mimetype.JSON, mimetype.BSON, mimetype.XML, mimetype.YAML, mimetype.TEXT,
		},
		engine.DecodeTypes(),
	)
	assert.Len(engine.EncodeTypes(), len(mimetype.Defaults()))
}

func TestCreateEngineInvalidConfig(test *testing.T) {
	_, err := encoding.NewContentEngine(
		false, encoding.WithConfig(serializer.DefaultConfig().WithMaxDepth(-1)),
	)
	assert.ErrorIs(test, err, spanerrors.ConfigurationError)
}

// Generic function for round-tripping a basic name object for a given mimeType
func RoundTripName(
	test *testing.T, mimeTypeEncode mimetype.MimeType, mimeTypeDecode mimetype.MimeType,
) *Name {
	engine := createEngine(test)

	testName := Name{
		First: "Harry",
		Last:  "Potter",
	}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimeTypeEncode, testName, &buffer))

	loaded := Name{}
	require.NoError(test, engine.Decode(mimeTypeDecode, &loaded, &buffer))

	assert.Equal(test, testName, loaded)
	return &loaded
}

func TestJsonBasicRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.JSON, mimetype.JSON)
}

func TestBsonBasicRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.BSON, mimetype.BSON)
}

func TestYamlBasicRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.YAML, mimetype.YAML)
}

func TestXMLBasicRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.XML, mimetype.XML)
}

func TestUnknownObjectBasicRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.UNKNOWN, mimetype.UNKNOWN)
}

func TestBSONToUnknownRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.BSON, mimetype.UNKNOWN)
}

func TestXMLToUnknownRoundTrip(test *testing.T) {
	RoundTripName(test, mimetype.XML, mimetype.UNKNOWN)
}

func TestTextRoundTrip(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := bytes.Buffer{}
	assert.NoError(engine.Encode(mimetype.UNKNOWN, "some text", &buffer))

	var loaded string
	assert.NoError(engine.Decode(mimetype.UNKNOWN, &loaded, &buffer))
	assert.Equal("some text", loaded)

	buffer.Reset()
	assert.NoError(engine.Encode(mimetype.TEXT, 2.5, &buffer))
	assert.Equal("2.5", buffer.String())

	assert.Error(engine.Decode(mimetype.TEXT, &Name{}, strings.NewReader("x")))
}

func TestXMLOutput(test *testing.T) {
	engine := createEngine(test)

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.XML, Name{First: "Harry"}, &buffer))
	assert.Equal(test, "<object><first>Harry</first><last/></object>", buffer.String())
}

func TestRDFOutput(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.NTriples, Name{"Harry", "Potter"}, &buffer))
	assert.Equal(
		`_:b1 <http://illuscio.com/spanmarshal/property/first> "Harry" .`+"\n"+
			`_:b1 <http://illuscio.com/spanmarshal/property/last> "Potter" .`+"\n",
		buffer.String(),
	)

	buffer.Reset()
	require.NoError(test, engine.Encode(mimetype.Turtle, Name{First: "Harry"}, &buffer))
	assert.True(strings.HasPrefix(buffer.String(), "@prefix smp: "))
}

func TestSchemaOutput(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.XMLSchema, Name{}, &buffer))
	assert.Contains(buffer.String(), `<complexType name="Name">`)

	buffer.Reset()
	require.NoError(test, engine.Encode(mimetype.SchemaJSON, Name{}, &buffer))
	assert.True(strings.HasPrefix(buffer.String(), `{"type":"object","class":"Name"`))
}

func TestNoDecoderError(test *testing.T) {
	engine := createEngine(test)

	err := engine.Decode(mimetype.XMLSchema, &Name{}, strings.NewReader("<schema/>"))
	assert.EqualError(test, err, "no decoder for application/xml+schema")
}

func TestNoEncoderError(test *testing.T) {
	engine := createEngine(test)

	err := engine.Encode(mimetype.MimeType("text/csv"), Name{}, &bytes.Buffer{})
	assert.EqualError(test, err, "no encoder for text/csv")
}

func TestEncodePanicsError(test *testing.T) {
	engine := createEngine(test)
	panicky := mimetype.MimeType("application/panic")
	engine.SetEncoder(panicky, &PanickyEncoder{})

	err := engine.Encode(panicky, Name{}, &bytes.Buffer{})
	assert.Error(test, err)
	assert.Contains(test, err.Error(), "encode panicked")
}

func TestDecoderPanicsError(test *testing.T) {
	engine := createEngine(test)
	panicky := mimetype.MimeType("application/panic")
	engine.SetDecoder(panicky, &PanickyEncoder{})

	err := engine.Decode(panicky, &Name{}, strings.NewReader("{}"))
	assert.Error(test, err)
	assert.Contains(test, err.Error(), "decode panicked")
}

func TestNoSniffError(test *testing.T) {
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)

	err = engine.Decode(mimetype.UNKNOWN, &Name{}, strings.NewReader(`{"First":"a"}`))
	assert.EqualError(test, err, "mimetype is unknown and sniffing is disabled")
}

func TestSniffFailsError(test *testing.T) {
	engine := createEngine(test)

	err := engine.Decode(mimetype.UNKNOWN, &Name{}, strings.NewReader("not anything"))
	assert.Error(test, err)
}

type TestCloser struct {
	*strings.Reader
	closed bool
}

func (closer *TestCloser) Close() error {
	closer.closed = true
	return nil
}

func TestClosesReader(test *testing.T) {
	engine := createEngine(test)

	closer := &TestCloser{Reader: strings.NewReader(`{"First":"Harry"}`)}
	loaded := Name{}
	require.NoError(test, engine.Decode(mimetype.JSON, &loaded, closer))

	assert.True(test, closer.closed)
	assert.Equal(test, "Harry", loaded.First)
}

func TestEncodeFailureIsLogged(test *testing.T) {
	assert := assert.New(test)

	core, logs := observer.New(zapcore.ErrorLevel)
	engine := createEngine(test, encoding.WithLogger(zap.New(core)))

	values := map[string]interface{}{}
	values["self"] = values

	err := engine.Encode(mimetype.XML, values, &bytes.Buffer{})
	assert.ErrorIs(err, spanerrors.RecursionError)

	entries := logs.FilterMessage("encode failed").All()
	require.Len(test, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(string(mimetype.XML), fields["mimetype"])
	assert.Equal("RecursionError", fields["error"].(map[string]interface{})["name"])
}

// Custom text encoder that reaches back into the engine it was handed.
type CustomTextEncoder struct{}

func (encoder CustomTextEncoder) Encode(
	engine encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	if _, ok := engine.(*ExtendedEngine); !ok {
		return xerrors.New("engine was not extended")
	}
	_, err := io.WriteString(writer, "extended")
	return err
}

type ExtendedEngine struct {
	*encoding.SpanEngine
}

func TestExtendEngine(test *testing.T) {
	engine := createEngine(test)
	extended := &ExtendedEngine{SpanEngine: engine}
	engine.SetPassedEngine(extended)
	engine.SetEncoder(mimetype.TEXT, CustomTextEncoder{})

	buffer := bytes.Buffer{}
	require.NoError(test, extended.Encode(mimetype.TEXT, "x", &buffer))
	assert.Equal(test, "extended", buffer.String())
}
