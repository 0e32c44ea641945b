package encoding

import (
	"bytes"
	"io"
	"reflect"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/metrics"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/schemastore"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Type helpers
type encoderMapping map[mimetype.MimeType]Encoder
type decoderMapping map[mimetype.MimeType]Decoder

/*
ContentEngine details the contract for a content encoding engine. The goal of the
content engine is to allow a common decoding and encoding methodology for any
supported mimetype, allowing easy support for client-requested payload encodings, and
a shared interface for different types of callers to add support for various
encoding types.
*/
type ContentEngine interface {
	// Registers an encoder for a given mimetype.
	SetEncoder(mimeType mimetype.MimeType, encoder Encoder)

	// Registers a decoder for a given mimetype.
	SetDecoder(mimeType mimetype.MimeType, decoder Decoder)

	// Returns true if the engine has a registered encoder for the mimetype.
	HandlesEncode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered decoder for the mimetype.
	HandlesDecode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered encoder AND decoder for the mimetype.
	Handles(mimeType mimetype.MimeType) bool

	// Whether the engine will attempt to decode unknown mimetypes.
	SniffType() bool

	// Decode mimeType content from reader using the decoder for mimeType. Decoded
	// content is stored in contentReceiver.
	Decode(
		mimeType mimetype.MimeType,
		contentReceiver interface{},
		reader io.Reader,
	) error

	// Encode content as mimetype using registered mimeType to writer.
	Encode(
		mimeType mimetype.MimeType,
		content interface{},
		writer io.Writer,
	) error
}

/*
SpanEngine is the default implementation of the ContentEngine interface.
Implementation is done through an Interface so that the Engine can be extended
through type wrapping.

Instantiation

Use NewContentEngine() to create a new SpanEngine. Options set the type resolver,
serializer configuration, logger, metrics collector and schema cache.

Default Mimetypes

• text/plain

• application/json

• application/bson

• application/yaml

• application/xml (encode and decode)

• application/n-triples and text/turtle (encode only)

• application/xml+schema and application/schema+json (encode only)

Default JSON Extensions

SpanEngine uses the codec library to encode/decode json
(https://godoc.org/github.com/ugorji/go/codec). BSON primitive.Binary data is encoded as
a UUID for the 0x3 subtype and as a hex string for the 0x0 subtype. BSON raw is
converted to a map and THEN encoded to a json object.

Default BSON Codecs

primitive.Binary of subtype 0x3 can be decoded to / encoded from UUID objects from
"github.com/satori/go.uuid", and subtype 0x0 to / from spantypes.BinData.

Schema Cache

XML Schema and metaschema output depends only on the type of the encoded value and
the configuration, so when a schemastore.Store is set generated documents are cached
under a key hashed from both.

Type Sniffing

If created with "sniffMimeType" set to true, when decoding SpanEngine will attempt
to use each decoder, in registration order, until one does not return an error or
panic.

Panics

If an encoder or decoder panics during execution, that panic is caught and returned as
an error.
*/
type SpanEngine struct {
	// MimeType:Encoder mapping
	encoders encoderMapping
	// MimeType:Decoder mapping
	decoders decoderMapping
	// Mimetypes of registered decoders in registration order. Used for sniffing.
	decoderOrder []mimetype.MimeType
	// Whether to attempt decoding when no explicit mimetype is known.
	sniffMimeType bool

	// Type descriptors for the spanmarshal serializers.
	resolver classmeta.Resolver
	// Serializer settings for the spanmarshal serializers.
	config serializer.Config
	// Hash input identifying config in schema cache keys.
	configFingerprint string

	logger      *zap.Logger
	metrics     *metrics.Collector
	schemaStore schemastore.Store
	schemaTTL   time.Duration

	// JSON handle for default JSON encoder
	jsonHandle *codec.JsonHandle
	// BSON registry for default BSON encoder
	bsonRegistry *bsoncodec.Registry
	// BSON codecs
	bsonCodecs []*BsonCodecOpts
	// Engine to pass to Encoder.Encoder() and Decoder.Decode() methods.
	passedEngine ContentEngine
}

// Option configures a SpanEngine.
type Option func(engine *SpanEngine)

// WithResolver sets the type resolver used by the spanmarshal serializers.
func WithResolver(resolver classmeta.Resolver) Option {
	return func(engine *SpanEngine) {
		engine.resolver = resolver
	}
}

// WithConfig sets the serializer configuration.
func WithConfig(config serializer.Config) Option {
	return func(engine *SpanEngine) {
		engine.config = config
	}
}

// WithLogger sets the logger passed to serializer sessions and used for failures.
func WithLogger(logger *zap.Logger) Option {
	return func(engine *SpanEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithMetrics records encode and decode metrics to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(engine *SpanEngine) {
		engine.metrics = collector
	}
}

// WithSchemaStore caches generated schemas in store. A positive ttl expires them.
func WithSchemaStore(store schemastore.Store, ttl time.Duration) Option {
	return func(engine *SpanEngine) {
		engine.schemaStore = store
		engine.schemaTTL = ttl
	}
}

// Change the engine passed into Encoder.Encode() and decoder.Decode()
func (engine *SpanEngine) SetPassedEngine(newEngine ContentEngine) {
	engine.passedEngine = newEngine
}

// Register an encoder for a given mimeType
func (engine *SpanEngine) SetEncoder(mimeType mimetype.MimeType, encoder Encoder) {
	engine.encoders[mimeType] = encoder
}

// Register a decoder for a given mimeType
func (engine *SpanEngine) SetDecoder(mimeType mimetype.MimeType, decoder Decoder) {
	if _, exists := engine.decoders[mimeType]; !exists {
		engine.decoderOrder = append(engine.decoderOrder, mimeType)
	}
	engine.decoders[mimeType] = decoder
}

// Whether SpanEngine will attempt to decode UNKNOWN content.
func (engine *SpanEngine) SniffType() bool {
	return engine.sniffMimeType
}

// Whether the SpanEngine has a registered encoder for mimeType.
func (engine *SpanEngine) HandlesEncode(mimeType mimetype.MimeType) bool {
	_, ok := engine.encoders[mimeType]
	return ok
}

// Whether the SpanEngine has a registered decoder for mimeType.
func (engine *SpanEngine) HandlesDecode(mimeType mimetype.MimeType) bool {
	_, ok := engine.decoders[mimeType]
	return ok
}

// Whether the SpanEngine has a registered decoder AND encoder for mimeType.
func (engine *SpanEngine) Handles(mimeType mimetype.MimeType) bool {
	return engine.HandlesEncode(mimeType) && engine.HandlesDecode(mimeType)
}

// EncodeTypes returns the mimetypes with a registered encoder, sorted.
func (engine *SpanEngine) EncodeTypes() []mimetype.MimeType {
	types := make([]mimetype.MimeType, 0, len(engine.encoders))
	for mimeType := range engine.encoders {
		types = append(types, mimeType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DecodeTypes returns the mimetypes with a registered decoder in registration order.
func (engine *SpanEngine) DecodeTypes() []mimetype.MimeType {
	types := make([]mimetype.MimeType, len(engine.decoderOrder))
	copy(types, engine.decoderOrder)
	return types
}

// Resolver returns the type resolver used by the spanmarshal serializers.
func (engine *SpanEngine) Resolver() classmeta.Resolver {
	return engine.resolver
}

// Config returns the serializer configuration.
func (engine *SpanEngine) Config() serializer.Config {
	return engine.config
}

func (engine *SpanEngine) Logger() *zap.Logger {
	return engine.logger
}

// Select what engine to pass into the encoder / decoder in case we are extending
// the engine type.
func (engine *SpanEngine) getEngine() (passEngine ContentEngine) {
	if engine.passedEngine != nil {
		passEngine = engine.passedEngine
	} else {
		passEngine = engine
	}

	return passEngine
}

func panicError(operation string, recovered interface{}) error {
	if recoveredErr, ok := recovered.(error); ok {
		return xerrors.Errorf("panic during %v: %w", operation, recoveredErr)
	}
	return xerrors.Errorf("panic during %v: %v", operation, recovered)
}

// Uses an encoder while catching panics to return as errors
func (engine *SpanEngine) safeEncode(
	encoder Encoder, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = panicError("encode", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = encoder.Encode(passEngine, writer, content)
	return err
}

// Uses a decoder while catching panics to return as errors
func (engine *SpanEngine) safeDecode(
	decoder Decoder, reader io.Reader, contentReceiver interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = panicError("decode", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = decoder.Decode(passEngine, reader, contentReceiver)

	return err
}

// Attempts to decode content with all registered decoders until one succeeds or all
// fail.
func (engine *SpanEngine) sniffContent(
	contentReceiver interface{},
	reader io.Reader,
) error {
	// We need to read the content multiple times, so lets load the bytes into a var.
	// This will cause a slight performance hit, which is why this is a separate process
	// from loading a KNOWN mimetype.
	contentBuffer := bytes.NewBuffer(make([]byte, 0))
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error reading contentBytes: %w", err)
	}

	var decoderErr error

	for _, mimeType := range engine.decoderOrder {
		// Make a buffer for this attempt, otherwise we'll run out of bytes.
		thisReader := bytes.NewBuffer(contentBuffer.Bytes())
		thisErr := engine.safeDecode(engine.decoders[mimeType], thisReader, contentReceiver)
		if thisErr == nil {
			engine.logger.Debug("sniffed content", zap.String("mimetype", string(mimeType)))
			return nil
		}

		if decoderErr == nil {
			decoderErr = thisErr
		} else {
			decoderErr = xerrors.Errorf(
				"decoding error: %v after: %w", thisErr, decoderErr,
			)
		}
	}

	return decoderErr
}

// Picks the mimetype for encoding / decoding objects when source or target mimetype is
// unknown.
func pickContentMimeType(
	mimeType mimetype.MimeType, content interface{}, encoding bool,
) mimetype.MimeType {
	if mimeType == mimetype.UNKNOWN {
		var useType mimetype.MimeType

		switch content.(type) {
		case string:
			useType = mimetype.TEXT
		case *string:
			useType = mimetype.TEXT
		default:
			useType = mimetype.JSON
		}

		// If we are decoding, we only want to force a text decoding if the receiver is
		// a string.
		if encoding || useType == mimetype.TEXT {
			mimeType = useType
		}
	}
	return mimeType
}

// Logs a failed encode or decode, with the span error fields when there is one.
func (engine *SpanEngine) logFailure(
	message string, mimeType mimetype.MimeType, err error,
) {
	fields := []zap.Field{zap.String("mimetype", string(mimeType))}
	if spanErr, ok := spanerrors.AsSpanError(err); ok {
		fields = append(fields, zap.Object("error", spanErr))
	} else {
		fields = append(fields, zap.Error(err))
	}
	engine.logger.Error(message, fields...)
}

func (engine *SpanEngine) Decode(
	mimeType mimetype.MimeType,
	contentReceiver interface{},
	reader io.Reader,
) error {
	mimeType = pickContentMimeType(mimeType, contentReceiver, false)

	// Close the reader if it's a closer.
	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	// If we want to sniff
	if mimeType == mimetype.UNKNOWN {
		if !engine.SniffType() {
			return xerrors.New("mimetype is unknown and sniffing is disabled")
		}
		started := time.Now()
		err := engine.sniffContent(contentReceiver, reader)
		engine.metrics.Observe(string(mimeType), metrics.Decode, err, time.Since(started))
		return err
	}

	decoder, ok := engine.decoders[mimeType]
	if !ok {
		return xerrors.New("no decoder for " + string(mimeType))
	}

	started := time.Now()
	err := engine.safeDecode(decoder, reader, contentReceiver)
	engine.metrics.Observe(string(mimeType), metrics.Decode, err, time.Since(started))
	if err != nil {
		engine.logFailure("decode failed", mimeType, err)
		return xerrors.Errorf("decode err: %w", err)
	}

	return nil
}

func (engine *SpanEngine) Encode(
	mimeType mimetype.MimeType,
	content interface{},
	writer io.Writer,
) error {
	mimeType = pickContentMimeType(mimeType, content, true)

	encoder, ok := engine.encoders[mimeType]
	if !ok {
		return xerrors.New("no encoder for " + string(mimeType))
	}

	started := time.Now()
	err := engine.safeEncode(encoder, writer, content)
	engine.metrics.Observe(string(mimeType), metrics.Encode, err, time.Since(started))
	if err != nil {
		engine.logFailure("encode failed", mimeType, err)
		return xerrors.Errorf(
			"encode err: %w", err,
		)
	}
	return nil
}

func (engine *SpanEngine) JSONHandle() *codec.JsonHandle {
	return engine.jsonHandle
}

// Returns the internal bsoncodec.BSONRegistry used by the bson encoder/decoder.
func (engine *SpanEngine) BSONRegistry() *bsoncodec.Registry {
	return engine.bsonRegistry
}

// Adds JSON extensions to handle.
func (engine *SpanEngine) AddJSONExtensions(extensions []*JSONExtensionOpts) error {
	for _, extOpts := range extensions {
		err := engine.jsonHandle.SetInterfaceExt(
			extOpts.ValueType, 1, extOpts.ExtInterface,
		)
		if err != nil {
			return xerrors.Errorf(
				"error adding json extension to content engine: %w", err,
			)
		}
	}
	return nil
}

// Adds BSON codecs to engine for use when encoding/decoding bson data.
func (engine *SpanEngine) AddBSONCodecs(codecs []*BsonCodecOpts) error {
	// Store these codecs for later in case more are added by the end user and we need
	// to build a new registry.
	engine.bsonCodecs = append(engine.bsonCodecs, codecs...)

	builder := bsoncodec.NewRegistryBuilder()
	bsoncodec.DefaultValueEncoders{}.RegisterDefaultEncoders(builder)
	bsoncodec.DefaultValueDecoders{}.RegisterDefaultDecoders(builder)

	for _, codecOpts := range engine.bsonCodecs {
		builder.RegisterCodec(codecOpts.ValueType, codecOpts.Codec)
	}

	// Build the bson registry.
	engine.bsonRegistry = builder.Build()

	// Now redeclare the json extension for bson raw with this registry so it has access
	// to any additional codecs
	err := engine.jsonHandle.SetInterfaceExt(
		reflect.TypeOf(bson.Raw{}),
		1,
		&jsonExtBsonRaw{engine.bsonRegistry},
	)
	if err != nil {
		return xerrors.Errorf(
			"error building bson extension for json handle: %w", err,
		)
	}

	return nil
}

func NewContentEngine(allowSniff bool, options ...Option) (*SpanEngine, error) {
	// Create the json handle. Schema-less objects decode to string-keyed maps so they
	// can be re-encoded by the spanmarshal serializers.
	jsonHandle := &codec.JsonHandle{}
	jsonHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))

	// Create the content engine.
	engine := &SpanEngine{
		encoders:      make(encoderMapping),
		decoders:      make(decoderMapping),
		sniffMimeType: allowSniff,
		resolver:      classmeta.NewRegistry(),
		config:        serializer.DefaultConfig(),
		logger:        zap.NewNop(),
		jsonHandle:    jsonHandle,
		bsonRegistry:  nil,
	}
	for _, option := range options {
		option(engine)
	}

	if err := engine.config.Validate(); err != nil {
		return nil, xerrors.Errorf("invalid serializer config: %w", err)
	}
	fingerprint, err := json.Marshal(engine.config)
	if err != nil {
		return nil, xerrors.Errorf("error fingerprinting serializer config: %w", err)
	}
	engine.configFingerprint = string(fingerprint)

	// Add the encoders.
	engine.SetEncoder(mimetype.JSON, &jsonEncoder{})
	engine.SetEncoder(mimetype.BSON, &bsonEncoder{})
	engine.SetEncoder(mimetype.YAML, &yamlEncoder{})
	engine.SetEncoder(mimetype.XML, &xmlEncoder{})
	engine.SetEncoder(mimetype.TEXT, &textEncoder{})
	engine.SetEncoder(mimetype.NTriples, newRDFEncoder(mimetype.NTriples))
	engine.SetEncoder(mimetype.Turtle, newRDFEncoder(mimetype.Turtle))
	engine.SetEncoder(mimetype.XMLSchema, &xmlSchemaEncoder{})
	engine.SetEncoder(mimetype.SchemaJSON, &metaschemaEncoder{})

	// Add the default decoders. This is also the sniffing order.
	engine.SetDecoder(mimetype.JSON, &jsonEncoder{})
	engine.SetDecoder(mimetype.BSON, &bsonEncoder{})
	engine.SetDecoder(mimetype.XML, &xmlEncoder{})
	engine.SetDecoder(mimetype.YAML, &yamlEncoder{})
	engine.SetDecoder(mimetype.TEXT, &textEncoder{})

	// Add the default json extensions to the engine.
	if err := engine.AddJSONExtensions(defaultJSONExtensions); err != nil {
		err = xerrors.Errorf("error adding default json extensions: %w", err)
		return nil, err
	}

	// Add the default bson codecs to the engine.
	if err := engine.AddBSONCodecs(defaultBsonCodecs); err != nil {
		err = xerrors.Errorf("error adding default bson codecs: %w", err)
		return nil, err
	}

	return engine, nil
}
