package serializer

import (
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
)

// RecursionPolicy decides what happens when a value is reached again while it is still
// being serialized, or when the depth limit is exceeded.
type RecursionPolicy int

const (
	// RecursionFail aborts the serialization with a spanerrors.RecursionError.
	RecursionFail RecursionPolicy = iota
	// RecursionOmit serializes the repeated value as null and carries on.
	RecursionOmit
)

func (policy RecursionPolicy) String() string {
	if policy == RecursionOmit {
		return "omit"
	}
	return "fail"
}

// ParseRecursionPolicy converts "fail" or "omit" to a RecursionPolicy.
func ParseRecursionPolicy(name string) (RecursionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fail":
		return RecursionFail, nil
	case "omit":
		return RecursionOmit, nil
	}
	return RecursionFail, spanerrors.ConfigurationError.Newf(
		"unknown recursion policy %q", name,
	)
}

// Default namespaces.
var (
	XSNamespace   = classmeta.NewNamespace("xs", "http://www.w3.org/2001/XMLSchema")
	XSINamespace  = classmeta.NewNamespace("xsi", "http://www.w3.org/2001/XMLSchema-instance")
	CoreNamespace = classmeta.NewNamespace("sm", "http://illuscio.com/spanmarshal/")
	BaseNamespace = classmeta.NewNamespace("smp", "http://illuscio.com/spanmarshal/property/")
)

/*
Config holds the settings of one serializer. Config is a value type: the With... methods
return a modified copy, so a shared base configuration is never changed by accident.

	config := serializer.DefaultConfig().
		WithTrimNulls(true).
		WithCollectionFormat(classmeta.CollectionMultiValued)
*/
type Config struct {
	// Write namespace prefixes and declarations in element-tree syntaxes.
	EnableNamespaces bool
	// Walk the value once to discover the namespaces in use before generating schemas.
	AutoDetectNamespaces bool

	// Skip nil bean properties.
	TrimNulls bool
	// Skip bean properties holding empty collections or arrays.
	TrimEmptyCollections bool
	// Skip bean properties holding empty maps.
	TrimEmptyMaps bool
	// Sort ordered maps by key. Built-in maps are always sorted.
	SortMaps bool
	// Sort collections by the string form of their elements.
	SortCollections bool

	// Add the "_class" attribute to element-tree output and schemas.
	AddClassAttrs bool
	// Add the "type" attribute to element-tree output and schemas.
	AddTypeAttrs bool
	// Write typed RDF literals.
	AddLiteralTypes bool

	// Session-wide collection format. Type and property overrides win.
	CollectionFormat classmeta.CollectionFormat

	Recursion RecursionPolicy
	// Maximum frame depth. 0 disables the limit.
	MaxDepth int

	UseIndentation bool
	// Attribute quote character, '"' or '\''.
	QuoteChar rune

	DefaultNamespace *classmeta.Namespace
	XSNamespace      *classmeta.Namespace
	// Additional known namespaces.
	Namespaces []*classmeta.Namespace

	// Namespace of RDF predicates for map keys and properties without a namespace.
	BaseNamespace *classmeta.Namespace
	// Namespace of the RDF "value" and "root" properties.
	CoreNamespace *classmeta.Namespace
	// Mark the RDF root resource with <core>root "true".
	AddRootProperty bool
	// Serialize each element of a top-level collection as its own RDF root.
	LooseCollections bool

	// Write the <?xml ...?> prolog before element-tree output.
	XMLDeclaration bool
}

// DefaultConfig returns a fresh default configuration.
func DefaultConfig() Config {
	return Config{
		CollectionFormat: classmeta.CollectionSeq,
		Recursion:        RecursionFail,
		QuoteChar:        '"',
		XSNamespace:      XSNamespace,
		BaseNamespace:    BaseNamespace,
		CoreNamespace:    CoreNamespace,
	}
}

// Validate reports configuration mistakes.
func (config Config) Validate() error {
	if config.QuoteChar != '"' && config.QuoteChar != '\'' {
		return spanerrors.ConfigurationError.Newf(
			"quote char must be '\"' or '\\'', got %q", config.QuoteChar,
		)
	}
	if config.MaxDepth < 0 {
		return spanerrors.ConfigurationError.Newf(
			"max depth must not be negative, got %v", config.MaxDepth,
		)
	}

	prefixes := make(map[string]string)
	for _, namespace := range config.AllNamespaces() {
		if uri, exists := prefixes[namespace.Prefix]; exists && uri != namespace.URI {
			return spanerrors.ConfigurationError.Newf(
				"namespace prefix %q is bound to both %v and %v",
				namespace.Prefix, uri, namespace.URI,
			)
		}
		prefixes[namespace.Prefix] = namespace.URI
	}
	return nil
}

// AllNamespaces returns the default namespace followed by the additional namespaces,
// skipping nils.
func (config Config) AllNamespaces() []*classmeta.Namespace {
	var namespaces []*classmeta.Namespace
	if config.DefaultNamespace != nil {
		namespaces = append(namespaces, config.DefaultNamespace)
	}
	for _, namespace := range config.Namespaces {
		if namespace != nil {
			namespaces = append(namespaces, namespace)
		}
	}
	return namespaces
}

func (config Config) WithEnableNamespaces(enabled bool) Config {
	config.EnableNamespaces = enabled
	return config
}

func (config Config) WithAutoDetectNamespaces(enabled bool) Config {
	config.AutoDetectNamespaces = enabled
	return config
}

func (config Config) WithTrimNulls(enabled bool) Config {
	config.TrimNulls = enabled
	return config
}

func (config Config) WithTrimEmptyCollections(enabled bool) Config {
	config.TrimEmptyCollections = enabled
	return config
}

func (config Config) WithTrimEmptyMaps(enabled bool) Config {
	config.TrimEmptyMaps = enabled
	return config
}

func (config Config) WithSortMaps(enabled bool) Config {
	config.SortMaps = enabled
	return config
}

func (config Config) WithSortCollections(enabled bool) Config {
	config.SortCollections = enabled
	return config
}

func (config Config) WithAddClassAttrs(enabled bool) Config {
	config.AddClassAttrs = enabled
	return config
}

func (config Config) WithAddTypeAttrs(enabled bool) Config {
	config.AddTypeAttrs = enabled
	return config
}

func (config Config) WithAddLiteralTypes(enabled bool) Config {
	config.AddLiteralTypes = enabled
	return config
}

func (config Config) WithCollectionFormat(format classmeta.CollectionFormat) Config {
	config.CollectionFormat = format
	return config
}

func (config Config) WithRecursion(policy RecursionPolicy) Config {
	config.Recursion = policy
	return config
}

func (config Config) WithMaxDepth(depth int) Config {
	config.MaxDepth = depth
	return config
}

func (config Config) WithIndentation(enabled bool) Config {
	config.UseIndentation = enabled
	return config
}

func (config Config) WithQuoteChar(quote rune) Config {
	config.QuoteChar = quote
	return config
}

func (config Config) WithDefaultNamespace(namespace *classmeta.Namespace) Config {
	config.DefaultNamespace = namespace
	return config
}

func (config Config) WithXSNamespace(namespace *classmeta.Namespace) Config {
	config.XSNamespace = namespace
	return config
}

// WithNamespaces appends to the known namespaces.
func (config Config) WithNamespaces(namespaces ...*classmeta.Namespace) Config {
	combined := make([]*classmeta.Namespace, 0, len(config.Namespaces)+len(namespaces))
	combined = append(combined, config.Namespaces...)
	config.Namespaces = append(combined, namespaces...)
	return config
}

func (config Config) WithBaseNamespace(namespace *classmeta.Namespace) Config {
	config.BaseNamespace = namespace
	return config
}

func (config Config) WithCoreNamespace(namespace *classmeta.Namespace) Config {
	config.CoreNamespace = namespace
	return config
}

func (config Config) WithAddRootProperty(enabled bool) Config {
	config.AddRootProperty = enabled
	return config
}

func (config Config) WithLooseCollections(enabled bool) Config {
	config.LooseCollections = enabled
	return config
}

func (config Config) WithXMLDeclaration(enabled bool) Config {
	config.XMLDeclaration = enabled
	return config
}
