package spanerrors

import (
	"fmt"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
)

/*
SpanErrorType defines a TYPE of error that the serializers can return.

Each SpanErrorType should have a unique Name and Code. Codes 2000-2999 are reserved for
the default definitions in this package.

Since types are declared as pointers, to protect against accidental mutation of the
error type by other packages, the underlying fields of this struct are private and
accessed through functions. Define new error types using NewSpanErrorType()
*/
type SpanErrorType struct {
	// Unique human-readable name of the error type.
	name string

	// Unique number to identify the error type.
	code int
}

// Returns a span error type definition. Each definition should only need to be declared
// once, ensuring consistent codes and names for the error type.
func NewSpanErrorType(name string, code int) *SpanErrorType {
	return &SpanErrorType{
		name: name,
		code: code,
	}
}

// Returns a new span error of this type. source may be nil.
func (errorType *SpanErrorType) New(message string, source error) *SpanError {
	return &SpanError{
		SpanErrorType: errorType,
		Message:       message,
		ID:            uuid.NewV4(),
		sourceErr:     source,
		frame:         xerrors.Caller(1),
	}
}

// Returns a new span error of this type with a fmt-style message. A trailing error
// argument is stored as the source error.
func (errorType *SpanErrorType) Newf(format string, args ...interface{}) *SpanError {
	var source error
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			source = err
		}
	}

	spanError := errorType.New(fmt.Sprintf(format, args...), source)
	spanError.frame = xerrors.Caller(1)
	return spanError
}

// Unique human-readable name of the error type.
func (errorType *SpanErrorType) Name() string {
	return errorType.name
}

// Unique number to identify the error type.
func (errorType *SpanErrorType) Code() int {
	return errorType.code
}

// Allows the error type definition itself to also be a valid error for things like
// testing error equality with errors.Is.
func (errorType *SpanErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.code) + ")"
}

// SpanError is a specific error instance.
type SpanError struct {
	// The type of error we are returning.
	*SpanErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error, used to correlate log lines.
	ID uuid.UUID

	// Slash-separated path of frame names from the root to the failing node.
	Path string

	// Name of the property or attribute being serialized when the error occurred.
	Property string

	// Name of the type being serialized when the error occurred.
	TypeName string

	// If this error was returned because of another error, the original error is stored
	// here.
	sourceErr error

	// The xerrors.Frame from where this error was instantiated.
	frame xerrors.Frame
}

// Sets the path the error occurred at and returns the error.
func (spanError *SpanError) WithPath(path string) *SpanError {
	spanError.Path = path
	return spanError
}

// Sets the property and type name the error occurred at and returns the error.
func (spanError *SpanError) WithLocation(property string, typeName string) *SpanError {
	spanError.Property = property
	spanError.TypeName = typeName
	return spanError
}

// Returns true if the underlying type of this error is the same as errorType.
func (spanError *SpanError) IsType(errorType *SpanErrorType) bool {
	return spanError.SpanErrorType.Error() == errorType.Error()
}

// Is lets errors.Is match a SpanError against its SpanErrorType.
func (spanError *SpanError) Is(target error) bool {
	switch typed := target.(type) {
	case *SpanErrorType:
		return spanError.IsType(typed)
	case *SpanError:
		return spanError.IsType(typed.SpanErrorType)
	}
	return false
}

// Error message without the source error appended.
func (spanError *SpanError) summary() string {
	message := spanError.SpanErrorType.Error() + " - " + spanError.Message
	if spanError.Property != "" || spanError.TypeName != "" {
		message += " [property=" + spanError.Property + " type=" + spanError.TypeName + "]"
	}
	return message
}

// Error string to conform to builtin error interface.
func (spanError *SpanError) Error() string {
	if spanError.sourceErr != nil {
		return spanError.summary() + ": " + spanError.sourceErr.Error()
	}
	return spanError.summary()
}

// Implements xerrors.Wrapper.
func (spanError *SpanError) Unwrap() error {
	return spanError.sourceErr
}

// Implements xerrors.Formatter so "%+v" prints the frame the error was created at.
func (spanError *SpanError) FormatError(printer xerrors.Printer) error {
	printer.Print(spanError.summary())
	if printer.Detail() {
		spanError.frame.Format(printer)
	}
	return spanError.sourceErr
}

// Format implements fmt.Formatter through xerrors.
func (spanError *SpanError) Format(state fmt.State, verb rune) {
	xerrors.FormatError(spanError, state, verb)
}

// Implements zapcore.ObjectMarshaler so errors can be logged with zap.Object.
func (spanError *SpanError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("name", spanError.name)
	encoder.AddInt("code", spanError.code)
	encoder.AddString("id", spanError.ID.String())
	encoder.AddString("message", spanError.Message)
	if spanError.Path != "" {
		encoder.AddString("path", spanError.Path)
	}
	if spanError.Property != "" {
		encoder.AddString("property", spanError.Property)
	}
	if spanError.TypeName != "" {
		encoder.AddString("type", spanError.TypeName)
	}
	if spanError.sourceErr != nil {
		encoder.AddString("source", spanError.sourceErr.Error())
	}
	return nil
}

// AsSpanError extracts the first SpanError in err's chain.
func AsSpanError(err error) (*SpanError, bool) {
	var spanError *SpanError
	if xerrors.As(err, &spanError) {
		return spanError, true
	}
	return nil, false
}
