// Enumeration-like type for content mimetypes.
package mimetype

import (
	"strings"
)

/*
MimeType is used to enumerate the default representation for content encoding types.
Non default MimeTypes can be used by wrapping a custom string:

	MimeType("text/csv")
*/
type MimeType string

const (
	JSON = MimeType("application/json")
	BSON = MimeType("application/bson")
	YAML = MimeType("application/yaml")
	XML  = MimeType("application/xml")
	TEXT = MimeType("text/plain")

	// XMLSchema is the NUL-separated set of XML Schema documents describing the XML
	// output of a value.
	XMLSchema = MimeType("application/xml+schema")
	// SchemaJSON is the JSON projection of a value's type metadata.
	SchemaJSON = MimeType("application/schema+json")

	NTriples = MimeType("application/n-triples")
	Turtle   = MimeType("text/turtle")

	// UNKNOWN is used when the incoming string is blank
	UNKNOWN = MimeType("")
)

// List of default mimeTypes that are encoded to / from objects (as opposed to raw
// text). Matched by subtype suffix, so the more specific subtypes come first.
var objectMimeTypes = []MimeType{SchemaJSON, XMLSchema, JSON, BSON, YAML, XML}

// Short names accepted for mimetypes whose subtype is not a suffix match.
var aliases = map[string]MimeType{
	"text":      TEXT,
	"xsd":       XMLSchema,
	"schema":    SchemaJSON,
	"nt":        NTriples,
	"ntriples":  NTriples,
	"n-triples": NTriples,
	"ttl":       Turtle,
	"turtle":    Turtle,
	"yml":       YAML,
}

// Defaults lists every mimetype with a default encoder.
func Defaults() []MimeType {
	return []MimeType{JSON, BSON, YAML, XML, TEXT, XMLSchema, SchemaJSON, NTriples, Turtle}
}

// Interface for object used to set headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// Extract content type from a message / request header.
func FromHeader(headers headerFetcher) MimeType {
	return FromString(headers.Get("Content-Type"))
}

/*
Convert MimeType from a string. Ignores case and parameters such as "; charset=utf-8".
If the MimeType is a default type, multiple formats are respected. For instance, all of
the following will yield "mimetype.JSON":

• "application/json"

• "application/JSON"

• "application/x-json"

• "json"

• "x-json"

Short names such as "ttl", "nt", "xsd" and "schema" are also recognized.
*/
func FromString(incoming string) MimeType {
	incoming = strings.ToLower(strings.TrimSpace(incoming))
	if index := strings.Index(incoming, ";"); index >= 0 {
		incoming = strings.TrimSpace(incoming[:index])
	}

	if incoming == "" {
		return UNKNOWN
	}
	if incoming == string(TEXT) || incoming == string(NTriples) || incoming == string(Turtle) {
		return MimeType(incoming)
	}
	if alias, ok := aliases[incoming]; ok {
		return alias
	}

	for _, mimeType := range objectMimeTypes {
		mimeTypeLower := strings.ToLower(string(mimeType))
		mimeTypeLower = strings.Split(mimeTypeLower, "/")[1]
		if strings.HasSuffix(incoming, mimeTypeLower) {
			return mimeType
		}
	}

	return MimeType(incoming)
}
