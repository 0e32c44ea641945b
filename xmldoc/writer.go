package xmldoc

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

/*
Writer writes XML markup piece by piece. Methods return the writer so calls chain:

	writer.OTag(1, "element").Attr("name", "id").Attr("type", "string").CETag().NL()

The first write error is kept and returned by Err; later writes are skipped.
*/
type Writer struct {
	out         io.Writer
	indentation bool
	quote       rune
	err         error
}

// NewWriter returns a writer. With indentation on, OTag, STag and ETag indent with
// tabs and NL writes newlines. quote is the attribute quote character.
func NewWriter(out io.Writer, indentation bool, quote rune) *Writer {
	if quote != '\'' {
		quote = '"'
	}
	return &Writer{
		out:         out,
		indentation: indentation,
		quote:       quote,
	}
}

// Err returns the first error encountered while writing.
func (writer *Writer) Err() error {
	return writer.err
}

// Append writes text as-is.
func (writer *Writer) Append(text string) *Writer {
	if writer.err != nil {
		return writer
	}
	_, writer.err = io.WriteString(writer.out, text)
	return writer
}

func (writer *Writer) indent(depth int) *Writer {
	if writer.indentation && depth > 0 {
		writer.Append(strings.Repeat("\t", depth))
	}
	return writer
}

// NL writes a newline when indentation is on.
func (writer *Writer) NL() *Writer {
	if writer.indentation {
		writer.Append("\n")
	}
	return writer
}

// OTag opens a start tag without closing it: "<name".
func (writer *Writer) OTag(depth int, name string) *Writer {
	return writer.indent(depth).Append("<" + name)
}

// STag writes a complete start tag: "<name>".
func (writer *Writer) STag(depth int, name string) *Writer {
	return writer.indent(depth).Append("<" + name + ">")
}

// ETag writes an end tag: "</name>".
func (writer *Writer) ETag(depth int, name string) *Writer {
	return writer.indent(depth).Append("</" + name + ">")
}

// CTag closes an opened start tag: ">".
func (writer *Writer) CTag() *Writer {
	return writer.Append(">")
}

// CETag closes an opened start tag as an empty element: "/>".
func (writer *Writer) CETag() *Writer {
	return writer.Append("/>")
}

// Attr writes ` name="value"` with value escaped.
func (writer *Writer) Attr(name string, value string) *Writer {
	quote := string(writer.quote)
	return writer.Append(" " + name + "=" + quote + EscapeAttr(value, writer.quote) + quote)
}

// NSAttr writes a prefixed attribute: ` prefix:name="value"`. An empty prefix writes a
// plain attribute.
func (writer *Writer) NSAttr(prefix string, name string, value string) *Writer {
	if prefix == "" {
		return writer.Attr(name, value)
	}
	return writer.Attr(prefix+":"+name, value)
}

// Text writes escaped character data.
func (writer *Writer) Text(text string) *Writer {
	return writer.Append(EscapeText(text))
}

// EscapeText escapes character data. Characters XML 1.0 cannot carry are written as
// "_xHHHH_". Each invalid UTF-8 byte is written as "_xFFFD_".
func EscapeText(text string) string {
	if !needsEscape(text, 0) {
		return text
	}
	builder := strings.Builder{}
	for index := 0; index < len(text); {
		char, size := utf8.DecodeRuneInString(text[index:])
		index += size
		if isInvalidRune(char, size) {
			builder.WriteString(invalidRuneEscape)
			continue
		}
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		default:
			writeChar(&builder, char)
		}
	}
	return builder.String()
}

// EscapeAttr escapes an attribute value delimited by quote.
func EscapeAttr(value string, quote rune) string {
	if !needsEscape(value, quote) {
		return value
	}
	builder := strings.Builder{}
	for index := 0; index < len(value); {
		char, size := utf8.DecodeRuneInString(value[index:])
		index += size
		if isInvalidRune(char, size) {
			builder.WriteString(invalidRuneEscape)
			continue
		}
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		case '"':
			if quote == '"' {
				builder.WriteString("&quot;")
			} else {
				builder.WriteRune(char)
			}
		case '\'':
			if quote == '\'' {
				builder.WriteString("&apos;")
			} else {
				builder.WriteRune(char)
			}
		case '\n':
			builder.WriteString("&#x0A;")
		case '\r':
			builder.WriteString("&#x0D;")
		case '\t':
			builder.WriteString("&#x09;")
		default:
			writeChar(&builder, char)
		}
	}
	return builder.String()
}

func needsEscape(text string, quote rune) bool {
	if !utf8.ValidString(text) {
		return true
	}
	for _, char := range text {
		switch {
		case char == '&' || char == '<' || char == '>':
			return true
		case quote != 0 && (char == '"' || char == '\'' || char < 0x20):
			return true
		case !isXMLChar(char):
			return true
		}
	}
	return false
}

const invalidRuneEscape = "_xFFFD_"

func isInvalidRune(char rune, size int) bool {
	return char == utf8.RuneError && size <= 1
}

// Characters outside isXMLChar are all in the BMP.
func writeChar(builder *strings.Builder, char rune) {
	if isXMLChar(char) {
		builder.WriteRune(char)
		return
	}
	fmt.Fprintf(builder, "_x%04X_", char)
}

func isXMLChar(char rune) bool {
	return char == 0x09 || char == 0x0A || char == 0x0D ||
		(char >= 0x20 && char <= 0xD7FF) ||
		(char >= 0xE000 && char <= 0xFFFD) ||
		(char >= 0x10000 && char <= 0x10FFFF)
}
