package spanerrors

// Base error for failures while classifying or emitting a value.
var SerializeError = NewSpanErrorType(
	"SerializeError",
	2000,
)

// Cycle or depth limit hit while walking an object graph.
var RecursionError = NewSpanErrorType(
	"RecursionError",
	2001,
)

// Programming or setup mistake, such as an unresolvable namespace.
var ConfigurationError = NewSpanErrorType(
	"ConfigurationError",
	2002,
)

// Invalid syntax or unbindable content encountered while parsing.
var ParseError = NewSpanErrorType(
	"ParseError",
	2003,
)
