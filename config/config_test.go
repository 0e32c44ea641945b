package config_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/config"
	"github.com/illuscio-dev/spanmarshal-go/schemastore"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(test *testing.T, contents string) string {
	path := filepath.Join(test.TempDir(), "spanmarshal.yaml")
	require.NoError(test, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(test *testing.T) {
	assert := assert.New(test)

	file, err := config.Load("")
	require.NoError(test, err)

	converted, err := file.ToSerializerConfig()
	require.NoError(test, err)
	assert.Equal(serializer.DefaultConfig(), converted)

	assert.True(file.Engine.Sniff)
	assert.Equal("memory", file.Schema.Cache)
	assert.Equal(time.Duration(0), file.Schema.TTL())
}

func TestLoadFile(test *testing.T) {
	assert := assert.New(test)

	path := writeConfig(test, `
serializer:
  enable_namespaces: true
  trim_nulls: true
  collection_format: bag
  recursion: omit
  max_depth: 12
  use_indentation: true
  quote_char: "'"
  default_namespace:
    prefix: ab
    uri: http://example.com/ab/
  namespaces:
    - prefix: cd
      uri: http://example.com/cd/
rdf:
  add_literal_types: true
  base_namespace:
    prefix: base
    uri: http://example.com/base/
schema:
  cache: none
  ttl_seconds: 30
engine:
  sniff: false
`)

	file, err := config.Load(path)
	require.NoError(test, err)

	converted, err := file.ToSerializerConfig()
	require.NoError(test, err)
	assert.True(converted.EnableNamespaces)
	assert.True(converted.TrimNulls)
	assert.Equal(classmeta.CollectionBag, converted.CollectionFormat)
	assert.Equal(serializer.RecursionOmit, converted.Recursion)
	assert.Equal(12, converted.MaxDepth)
	assert.True(converted.UseIndentation)
	assert.Equal('\'', converted.QuoteChar)
	assert.Equal(classmeta.NewNamespace("ab", "http://example.com/ab/"), converted.DefaultNamespace)
	assert.Equal(
		[]*classmeta.Namespace{classmeta.NewNamespace("cd", "http://example.com/cd/")},
		converted.Namespaces,
	)
	assert.True(converted.AddLiteralTypes)
	assert.Equal("http://example.com/base/", converted.BaseNamespace.URI)

	assert.False(file.Engine.Sniff)
	assert.Equal(30*time.Second, file.Schema.TTL())

	store, err := file.Schema.Store()
	assert.NoError(err)
	assert.Nil(store)
}

func TestEnvironmentOverrides(test *testing.T) {
	test.Setenv("SPANMARSHAL_SERIALIZER_TRIM_NULLS", "true")
	test.Setenv("SPANMARSHAL_SERIALIZER_RECURSION", "omit")

	file, err := config.Load(writeConfig(test, "serializer:\n  trim_nulls: false\n"))
	require.NoError(test, err)

	converted, err := file.ToSerializerConfig()
	require.NoError(test, err)
	assert.True(test, converted.TrimNulls)
	assert.Equal(test, serializer.RecursionOmit, converted.Recursion)
}

func TestLoadInvalid(test *testing.T) {
	for name, contents := range map[string]string{
		"recursion":         "serializer:\n  recursion: sometimes\n",
		"collection format": "serializer:\n  collection_format: tree\n",
		"quote char":        "serializer:\n  quote_char: ab\n",
		"max depth":         "serializer:\n  max_depth: -1\n",
		"cache":             "schema:\n  cache: disk\n",
		"redis url":         "schema:\n  cache: redis\n",
		"ttl":               "schema:\n  ttl_seconds: -5\n",
	} {
		_, err := config.Load(writeConfig(test, contents))
		assert.ErrorIs(test, err, spanerrors.ConfigurationError, name)
	}

	_, err := config.Load(filepath.Join(test.TempDir(), "missing.yaml"))
	assert.Error(test, err)
}

func TestSchemaStores(test *testing.T) {
	assert := assert.New(test)

	store, err := config.SchemaConfig{Cache: "memory"}.Store()
	assert.NoError(err)
	assert.IsType(&schemastore.MemoryStore{}, store)

	store, err = config.SchemaConfig{Cache: "redis", RedisURL: "redis://localhost:6379/0"}.Store()
	assert.NoError(err)
	require.IsType(test, &schemastore.RedisStore{}, store)
	assert.NoError(store.(*schemastore.RedisStore).Close())

	_, err = config.SchemaConfig{Cache: "redis", RedisURL: "not a url"}.Store()
	assert.ErrorIs(err, spanerrors.ConfigurationError)
}
