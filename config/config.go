// Package config loads serializer settings from a YAML file and the environment.
package config

import (
	"strings"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/schemastore"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// EnvPrefix is the prefix of environment variables overriding file settings, for
// example SPANMARSHAL_SERIALIZER_TRIM_NULLS.
const EnvPrefix = "SPANMARSHAL"

// File represents a spanmarshal configuration file.
type File struct {
	Serializer SerializerConfig `mapstructure:"serializer"`
	RDF        RDFConfig        `mapstructure:"rdf"`
	Schema     SchemaConfig     `mapstructure:"schema"`
	Engine     EngineConfig     `mapstructure:"engine"`
}

// SerializerConfig represents the settings shared by every format.
type SerializerConfig struct {
	EnableNamespaces     bool                   `mapstructure:"enable_namespaces"`
	AutoDetectNamespaces bool                   `mapstructure:"auto_detect_namespaces"`
	TrimNulls            bool                   `mapstructure:"trim_nulls"`
	TrimEmptyCollections bool                   `mapstructure:"trim_empty_collections"`
	TrimEmptyMaps        bool                   `mapstructure:"trim_empty_maps"`
	SortMaps             bool                   `mapstructure:"sort_maps"`
	SortCollections      bool                   `mapstructure:"sort_collections"`
	AddClassAttrs        bool                   `mapstructure:"add_class_attrs"`
	AddTypeAttrs         bool                   `mapstructure:"add_type_attrs"`
	CollectionFormat     string                 `mapstructure:"collection_format"`
	Recursion            string                 `mapstructure:"recursion"`
	MaxDepth             int                    `mapstructure:"max_depth"`
	UseIndentation       bool                   `mapstructure:"use_indentation"`
	QuoteChar            string                 `mapstructure:"quote_char"`
	XMLDeclaration       bool                   `mapstructure:"xml_declaration"`
	DefaultNamespace     *classmeta.Namespace   `mapstructure:"default_namespace"`
	Namespaces           []*classmeta.Namespace `mapstructure:"namespaces"`
}

// RDFConfig represents the RDF-only settings.
type RDFConfig struct {
	AddLiteralTypes  bool                 `mapstructure:"add_literal_types"`
	AddRootProperty  bool                 `mapstructure:"add_root_property"`
	LooseCollections bool                 `mapstructure:"loose_collections"`
	BaseNamespace    *classmeta.Namespace `mapstructure:"base_namespace"`
	CoreNamespace    *classmeta.Namespace `mapstructure:"core_namespace"`
}

// SchemaConfig represents the schema cache settings.
type SchemaConfig struct {
	// "memory", "redis" or "none".
	Cache    string `mapstructure:"cache"`
	RedisURL string `mapstructure:"redis_url"`
	// Seconds before a cached schema expires. 0 keeps schemas until evicted.
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// EngineConfig represents the content engine settings.
type EngineConfig struct {
	Sniff bool `mapstructure:"sniff"`
}

func setDefaults(v *viper.Viper) {
	defaults := serializer.DefaultConfig()

	v.SetDefault("serializer.collection_format", defaults.CollectionFormat.String())
	v.SetDefault("serializer.recursion", defaults.Recursion.String())
	v.SetDefault("serializer.max_depth", defaults.MaxDepth)
	v.SetDefault("serializer.quote_char", string(defaults.QuoteChar))
	v.SetDefault("schema.cache", "memory")
	v.SetDefault("schema.ttl_seconds", 0)
	v.SetDefault("engine.sniff", true)

	// Registered so AutomaticEnv can override keys absent from the file.
	for _, key := range []string{
		"serializer.enable_namespaces",
		"serializer.auto_detect_namespaces",
		"serializer.trim_nulls",
		"serializer.trim_empty_collections",
		"serializer.trim_empty_maps",
		"serializer.sort_maps",
		"serializer.sort_collections",
		"serializer.add_class_attrs",
		"serializer.add_type_attrs",
		"serializer.use_indentation",
		"serializer.xml_declaration",
		"rdf.add_literal_types",
		"rdf.add_root_property",
		"rdf.loose_collections",
	} {
		v.SetDefault(key, false)
	}
	v.SetDefault("schema.redis_url", "")
}

// Load reads the configuration file at path. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*File, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, xerrors.Errorf("failed to read config file: %w", err)
		}
	}

	var file File
	if err := v.Unmarshal(&file); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := file.ToSerializerConfig(); err != nil {
		return nil, err
	}
	if err := validateSchema(&file.Schema); err != nil {
		return nil, err
	}

	return &file, nil
}

// TTL is the expiry of cached schemas. 0 means no expiry.
func (schema SchemaConfig) TTL() time.Duration {
	return time.Duration(schema.TTLSeconds) * time.Second
}

// Store opens the configured schema cache. It returns nil for "none".
func (schema SchemaConfig) Store() (schemastore.Store, error) {
	switch schema.Cache {
	case "none":
		return nil, nil
	case "redis":
		options, err := redis.ParseURL(schema.RedisURL)
		if err != nil {
			return nil, spanerrors.ConfigurationError.New("invalid schema.redis_url", err)
		}
		store, err := schemastore.NewRedisStoreWithOptions(options)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return schemastore.NewMemoryStore(), nil
	}
}

func validateSchema(schema *SchemaConfig) error {
	switch schema.Cache {
	case "memory", "none":
	case "redis":
		if schema.RedisURL == "" {
			return spanerrors.ConfigurationError.New(
				"schema.redis_url is required for the redis cache", nil,
			)
		}
	default:
		return spanerrors.ConfigurationError.Newf(
			"schema.cache must be memory, redis or none, got: %v", schema.Cache,
		)
	}
	if schema.TTLSeconds < 0 {
		return spanerrors.ConfigurationError.Newf(
			"schema.ttl_seconds must not be negative, got: %v", schema.TTLSeconds,
		)
	}
	return nil
}

// ToSerializerConfig converts the file settings to a validated serializer.Config.
func (file *File) ToSerializerConfig() (serializer.Config, error) {
	settings := file.Serializer
	config := serializer.DefaultConfig().
		WithEnableNamespaces(settings.EnableNamespaces).
		WithAutoDetectNamespaces(settings.AutoDetectNamespaces).
		WithTrimNulls(settings.TrimNulls).
		WithTrimEmptyCollections(settings.TrimEmptyCollections).
		WithTrimEmptyMaps(settings.TrimEmptyMaps).
		WithSortMaps(settings.SortMaps).
		WithSortCollections(settings.SortCollections).
		WithAddClassAttrs(settings.AddClassAttrs).
		WithAddTypeAttrs(settings.AddTypeAttrs).
		WithMaxDepth(settings.MaxDepth).
		WithIndentation(settings.UseIndentation).
		WithXMLDeclaration(settings.XMLDeclaration).
		WithDefaultNamespace(settings.DefaultNamespace).
		WithAddLiteralTypes(file.RDF.AddLiteralTypes).
		WithAddRootProperty(file.RDF.AddRootProperty).
		WithLooseCollections(file.RDF.LooseCollections)

	if len(settings.Namespaces) > 0 {
		config = config.WithNamespaces(settings.Namespaces...)
	}
	if settings.CollectionFormat != "" {
		format, err := classmeta.ParseCollectionFormat(settings.CollectionFormat)
		if err != nil {
			return config, spanerrors.ConfigurationError.New(
				"invalid serializer.collection_format", err,
			)
		}
		config = config.WithCollectionFormat(format)
	}
	if settings.Recursion != "" {
		policy, err := serializer.ParseRecursionPolicy(settings.Recursion)
		if err != nil {
			return config, err
		}
		config = config.WithRecursion(policy)
	}
	if settings.QuoteChar != "" {
		runes := []rune(settings.QuoteChar)
		if len(runes) != 1 {
			return config, spanerrors.ConfigurationError.Newf(
				"serializer.quote_char must be a single character, got: %q",
				settings.QuoteChar,
			)
		}
		config = config.WithQuoteChar(runes[0])
	}
	if file.RDF.BaseNamespace != nil {
		config = config.WithBaseNamespace(file.RDF.BaseNamespace)
	}
	if file.RDF.CoreNamespace != nil {
		config = config.WithCoreNamespace(file.RDF.CoreNamespace)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
