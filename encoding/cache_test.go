package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/metrics"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/schemastore"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCache(test *testing.T) {
	assert := assert.New(test)

	store := schemastore.NewMemoryStore()
	collector := metrics.NewWithRegistry(prometheus.NewRegistry())
	engine := createEngine(
		test,
		encoding.WithSchemaStore(store, 0),
		encoding.WithMetrics(collector),
	)

	first := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.SchemaJSON, Name{}, &first))
	second := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.SchemaJSON, Name{First: "x"}, &second))

	assert.Equal(first.String(), second.String())
	assert.Equal(1, store.Len())
	assert.Equal(1.0, testutil.ToFloat64(collector.SchemaCache.WithLabelValues("miss")))
	assert.Equal(1.0, testutil.ToFloat64(collector.SchemaCache.WithLabelValues("hit")))

	// XML Schema documents are cached separately.
	require.NoError(test, engine.Encode(mimetype.XMLSchema, Name{}, &bytes.Buffer{}))
	assert.Equal(2, store.Len())

	// Null values have no type to key on.
	require.NoError(test, engine.Encode(mimetype.SchemaJSON, nil, &bytes.Buffer{}))
	assert.Equal(2, store.Len())

	assert.Equal(
		3.0,
		testutil.ToFloat64(
			collector.Operations.WithLabelValues(
				string(mimetype.SchemaJSON), metrics.Encode, metrics.Success,
			),
		),
	)
}

func TestSchemaCacheBypassedForDetectedNamespaces(test *testing.T) {
	store := schemastore.NewMemoryStore()
	config := serializer.DefaultConfig().
		WithEnableNamespaces(true).
		WithAutoDetectNamespaces(true)
	engine := createEngine(test, encoding.WithConfig(config), encoding.WithSchemaStore(store, 0))

	require.NoError(test, engine.Encode(mimetype.XMLSchema, Name{}, &bytes.Buffer{}))
	assert.Equal(test, 0, store.Len())
}

func TestSchemaCacheKeyIncludesConfig(test *testing.T) {
	store := schemastore.NewMemoryStore()

	plain := createEngine(test, encoding.WithSchemaStore(store, 0))
	trimmed := createEngine(
		test,
		encoding.WithSchemaStore(store, 0),
		encoding.WithConfig(serializer.DefaultConfig().WithTrimNulls(true)),
	)

	plainOut := bytes.Buffer{}
	require.NoError(test, plain.Encode(mimetype.XMLSchema, Name{}, &plainOut))
	trimmedOut := bytes.Buffer{}
	require.NoError(test, trimmed.Encode(mimetype.XMLSchema, Name{}, &trimmedOut))

	assert.Equal(test, 2, store.Len())
	assert.NotEqual(test, plainOut.String(), trimmedOut.String())
}

func TestOmittedMetric(test *testing.T) {
	assert := assert.New(test)

	collector := metrics.NewWithRegistry(prometheus.NewRegistry())
	engine := createEngine(
		test,
		encoding.WithConfig(serializer.DefaultConfig().WithRecursion(serializer.RecursionOmit)),
		encoding.WithMetrics(collector),
	)

	values := map[string]interface{}{}
	values["self"] = values

	require.NoError(test, engine.Encode(mimetype.XML, values, &bytes.Buffer{}))
	assert.Equal(
		1.0, testutil.ToFloat64(collector.Omitted.WithLabelValues(string(mimetype.XML))),
	)
	assert.Equal(
		1.0,
		testutil.ToFloat64(
			collector.Operations.WithLabelValues(
				string(mimetype.XML), metrics.Encode, metrics.Success,
			),
		),
	)

	err := engine.Decode(mimetype.XML, &values, bytes.NewBufferString("<object>"))
	assert.Error(err)
	assert.Equal(
		1.0,
		testutil.ToFloat64(
			collector.Operations.WithLabelValues(
				string(mimetype.XML), metrics.Decode, metrics.Failure,
			),
		),
	)
}
