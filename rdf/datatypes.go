package rdf

// xsdDatatype maps basic Go values to XML Schema datatype IRIs.
func xsdDatatype(value interface{}) string {
	var local string
	switch value.(type) {
	case bool:
		local = "boolean"
	case int8:
		local = "byte"
	case int16:
		local = "short"
	case int32:
		local = "int"
	case int, int64:
		local = "long"
	case uint8:
		local = "unsignedByte"
	case uint16:
		local = "unsignedShort"
	case uint32:
		local = "unsignedInt"
	case uint, uint64, uintptr:
		local = "unsignedLong"
	case float32:
		local = "float"
	case float64:
		local = "double"
	default:
		local = "string"
	}
	return XSDURI + local
}
