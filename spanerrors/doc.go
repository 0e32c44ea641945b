/*
Spanmarshal error model definition and default span errors.

Every failure surfaced by the serializers is a *SpanError carrying one of a small set of
error types, so callers can branch on the kind of failure without string matching.

This package defines two main objects for handling errors:

• SpanErrorType defines an error type.

• SpanError is an instance of an error which contains a SpanErrorType.

Default SpanErrorType Variables

• SerializeError wraps any failure during type classification or emission, including
I/O failures of the output sink.

• RecursionError is returned when a cycle or an excessive depth is detected and the
session is configured to fail on recursion.

• ConfigurationError signals a setup mistake such as a namespace with no registered
schema. It is a programming error, not bad input.

• ParseError is returned when a document cannot be bound back into Go values.

Matching

errors.Is(err, spanerrors.RecursionError) reports whether any error in the chain is a
SpanError of that type.
*/
package spanerrors
