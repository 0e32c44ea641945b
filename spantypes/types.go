package spantypes

// BinData is used to hold raw binary blob information. The serializers swap it to a hex
// string, while BSON will transform it to a BSON Binary primitive.
type BinData []byte

// URI marks a string value as a resource identifier rather than text. RDF output
// renders it as a resource reference, XML output as text.
type URI string

// Char is a single character value. Go has no distinct character type (rune is an
// int32), so values that must serialize as characters use this named type. The zero
// Char serializes as null.
type Char rune

// String returns the character as a one-rune string.
func (char Char) String() string {
	return string(rune(char))
}
