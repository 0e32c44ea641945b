package classmeta

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// EncodeElementName makes name safe for use as an XML element or attribute name.
// Characters that are not allowed are written as "_xHHHH_", as is an underscore that
// would otherwise start such a sequence. Characters above U+FFFF are written as a
// UTF-16 surrogate pair of two such sequences. An empty name encodes as "_x0000_".
func EncodeElementName(name string) string {
	if name == "" {
		return "_x0000_"
	}
	if isSafeElementName(name) {
		return name
	}

	builder := strings.Builder{}
	for index, char := range name {
		switch {
		case char == '_' && strings.HasPrefix(name[index:], "_x"):
			builder.WriteString("_x005F_")
		case index == 0 && !isNameStartChar(char), index > 0 && !isNameChar(char):
			writeEncodedChar(&builder, char)
		default:
			builder.WriteRune(char)
		}
	}
	return builder.String()
}

func writeEncodedChar(builder *strings.Builder, char rune) {
	if high, low := utf16.EncodeRune(char); high != utf8.RuneError {
		fmt.Fprintf(builder, "_x%04X__x%04X_", high, low)
		return
	}
	fmt.Fprintf(builder, "_x%04X_", char)
}

// DecodeElementName reverses EncodeElementName.
func DecodeElementName(name string) string {
	if !strings.Contains(name, "_x") {
		return name
	}
	if name == "_x0000_" {
		return ""
	}

	builder := strings.Builder{}
	for index := 0; index < len(name); {
		code, ok := encodedCharAt(name, index)
		if !ok {
			builder.WriteByte(name[index])
			index++
			continue
		}
		index += 7

		if utf16.IsSurrogate(code) {
			if low, ok := encodedCharAt(name, index); ok {
				if combined := utf16.DecodeRune(code, low); combined != utf8.RuneError {
					code = combined
					index += 7
				}
			}
		}
		builder.WriteRune(code)
	}
	return builder.String()
}

// encodedCharAt parses an "_xHHHH_" sequence starting at index.
func encodedCharAt(name string, index int) (rune, bool) {
	if index+7 > len(name) || name[index] != '_' || name[index+1] != 'x' ||
		name[index+6] != '_' {
		return 0, false
	}
	code, err := strconv.ParseUint(name[index+2:index+6], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(code), true
}

func isSafeElementName(name string) bool {
	if strings.Contains(name, "_x") {
		return false
	}
	for index, char := range name {
		if index == 0 && !isNameStartChar(char) {
			return false
		}
		if !isNameChar(char) {
			return false
		}
	}
	return true
}

func isNameStartChar(char rune) bool {
	return char == '_' || unicode.IsLetter(char)
}

func isNameChar(char rune) bool {
	return isNameStartChar(char) || unicode.IsDigit(char) || char == '-' || char == '.'
}

// Java-bean style decapitalization: "Name" -> "name", but "URL" stays "URL".
func decapitalize(name string) string {
	if name == "" {
		return name
	}
	first, width := utf8.DecodeRuneInString(name)
	if len(name) > width {
		second, _ := utf8.DecodeRuneInString(name[width:])
		if unicode.IsUpper(first) && unicode.IsUpper(second) {
			return name
		}
	}
	return string(unicode.ToLower(first)) + name[width:]
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	first, width := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[width:]
}

// Derives a stable type name from a reflect.Type.
func typeName(t reflect.Type) string {
	if t == nil {
		return "Object"
	}
	if t.Name() != "" {
		return t.Name()
	}

	switch t.Kind() {
	case reflect.Ptr:
		return typeName(t.Elem())
	case reflect.Slice, reflect.Array:
		return "ArrayOf" + capitalize(typeName(t.Elem()))
	case reflect.Map:
		return "MapOf" + capitalize(typeName(t.Key())) + "To" + capitalize(typeName(t.Elem()))
	}
	return "Object"
}
