package classmeta

// Namespace is a (prefix, URI) pair. Within one serialization prefixes are unique.
type Namespace struct {
	Prefix string `mapstructure:"prefix"`
	URI    string `mapstructure:"uri"`
}

// NewNamespace returns a pointer to a new Namespace.
func NewNamespace(prefix string, uri string) *Namespace {
	return &Namespace{Prefix: prefix, URI: uri}
}

// Same reports whether two namespaces have the same URI. A nil namespace is only the
// same as another nil namespace.
func (namespace *Namespace) Same(other *Namespace) bool {
	if namespace == nil || other == nil {
		return namespace == other
	}
	return namespace.URI == other.URI
}

func (namespace *Namespace) String() string {
	if namespace == nil {
		return "<nil>"
	}
	return "{" + namespace.Prefix + ":" + namespace.URI + "}"
}

// FirstNamespace returns the first non-nil namespace.
func FirstNamespace(candidates ...*Namespace) *Namespace {
	for _, candidate := range candidates {
		if candidate != nil {
			return candidate
		}
	}
	return nil
}
