package classmeta

import (
	"strings"

	"golang.org/x/xerrors"
)

// Kind is the semantic category of a type, which decides how the serializers represent
// its values.
type Kind int

const (
	// KindObject is an interface or otherwise unknown type. The actual kind is decided
	// per value.
	KindObject Kind = iota
	KindNull
	KindString
	KindChar
	KindNumber
	KindBoolean
	KindMap
	KindBean
	KindCollection
	KindArray
	KindURI
	// KindDelegate values wrap another value and serialize as that value.
	KindDelegate
)

var kindNames = map[Kind]string{
	KindObject:     "object",
	KindNull:       "null",
	KindString:     "string",
	KindChar:       "char",
	KindNumber:     "number",
	KindBoolean:    "boolean",
	KindMap:        "map",
	KindBean:       "bean",
	KindCollection: "collection",
	KindArray:      "array",
	KindURI:        "uri",
	KindDelegate:   "delegate",
}

func (kind Kind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return "unknown"
}

// Format controls where a bean property is placed in element-tree syntaxes.
type Format int

const (
	// FormatNormal renders the property as a child element.
	FormatNormal Format = iota
	// FormatAttribute renders the property as an attribute of the bean element.
	FormatAttribute
	// FormatCollapsed renders a collection property as repeated child elements with no
	// wrapping element.
	FormatCollapsed
	// FormatContent renders the property as the text or inline children of the bean
	// element.
	FormatContent
)

func (format Format) String() string {
	switch format {
	case FormatAttribute:
		return "ATTRIBUTE"
	case FormatCollapsed:
		return "COLLAPSED"
	case FormatContent:
		return "CONTENT"
	default:
		return "NORMAL"
	}
}

// CollectionFormat selects how collections are represented in graph syntaxes.
type CollectionFormat int

const (
	// CollectionDefault defers to the next most specific setting.
	CollectionDefault CollectionFormat = iota
	// CollectionSeq is an ordered sequence container.
	CollectionSeq
	// CollectionBag is an unordered container.
	CollectionBag
	// CollectionList is a linked list.
	CollectionList
	// CollectionMultiValued repeats the owning property once per element.
	CollectionMultiValued
)

func (format CollectionFormat) String() string {
	switch format {
	case CollectionSeq:
		return "SEQ"
	case CollectionBag:
		return "BAG"
	case CollectionList:
		return "LIST"
	case CollectionMultiValued:
		return "MULTI_VALUED"
	default:
		return "DEFAULT"
	}
}

// ParseCollectionFormat converts a name such as "bag" or "MULTI_VALUED" to a
// CollectionFormat. Case and '-' vs '_' are ignored.
func ParseCollectionFormat(name string) (CollectionFormat, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), "-", "_")
	switch normalized {
	case "", "DEFAULT":
		return CollectionDefault, nil
	case "SEQ":
		return CollectionSeq, nil
	case "BAG":
		return CollectionBag, nil
	case "LIST":
		return CollectionList, nil
	case "MULTI_VALUED", "MULTIVALUED", "MULTI":
		return CollectionMultiValued, nil
	}
	return CollectionDefault, xerrors.Errorf("unknown collection format %q", name)
}
