// Arbitrary encoding and decoding of object graphs by mimetype.
/*
The content engine is the front door of the module: a single interface that encodes any
value to, or decodes it from, whichever mimetype the caller names, so that the format is
picked at runtime from message headers or command line flags instead of by calling a
format-specific API.

Object formats

JSON, BSON and YAML are handled by their usual codecs. XML, RDF (N-Triples and Turtle),
XML Schema and the JSON metaschema are produced by the spanmarshal serializers, which walk
the value through the engine's type resolver and honor the engine's serializer.Config.

Extending

New mimetypes are supported by registering an Encoder or Decoder with SetEncoder and
SetDecoder. Encoders receive the calling engine so they can reach engine-level settings.
*/
package encoding
