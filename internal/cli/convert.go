package cli

import (
	"fmt"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type convertOptions struct {
	from string
	to   string
	out  string
}

func newConvertCommand(root *rootOptions) *cobra.Command {
	options := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Re-encode a document in another format",
		Long: `Decode a document, from a file or stdin, and encode it to another format.

When --from is omitted the input format is sniffed by trying every decoder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, root, options.from, options.to, options.out)
		},
	}

	cmd.Flags().StringVar(&options.from, "from", "", "input mimetype (sniffed when empty)")
	cmd.Flags().StringVar(&options.to, "to", "json", "output mimetype")
	cmd.Flags().StringVar(&options.out, "out", "", "output file (stdout when empty)")

	return cmd
}

func newSchemaCommand(root *rootOptions) *cobra.Command {
	options := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "schema [file]",
		Short: "Describe the structure of a document",
		Long: `Decode a document and write the XML Schema of its XML form ("xsd", the
default) or its JSON metaschema ("schema").`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := mimetype.FromString(options.to)
			if to != mimetype.XMLSchema && to != mimetype.SchemaJSON {
				return xerrors.Errorf("schema format must be xsd or schema, got: %v", options.to)
			}
			return runConvert(cmd, args, root, options.from, options.to, options.out)
		},
	}

	cmd.Flags().StringVar(&options.from, "from", "", "input mimetype (sniffed when empty)")
	cmd.Flags().StringVar(&options.to, "to", "xsd", "schema format, xsd or schema")
	cmd.Flags().StringVar(&options.out, "out", "", "output file (stdout when empty)")

	return cmd
}

// Returns a pointer to a value able to receive any document of mimeType.
func receiverFor(mimeType mimetype.MimeType) interface{} {
	switch mimeType {
	case mimetype.BSON:
		return &bson.M{}
	case mimetype.TEXT:
		text := ""
		return &text
	default:
		var document interface{}
		return &document
	}
}

func runConvert(
	cmd *cobra.Command,
	args []string,
	root *rootOptions,
	fromName string,
	toName string,
	outPath string,
) error {
	engine, logger, err := root.engine()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	from := mimetype.FromString(fromName)
	to := mimetype.FromString(toName)
	if err := checkFormats(engine, from, to); err != nil {
		return err
	}

	input, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	receiver := receiverFor(from)
	if err := engine.Decode(from, receiver, input); err != nil {
		return err
	}
	document := reflect.ValueOf(receiver).Elem().Interface()

	output, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	if err := engine.Encode(to, document, output); err != nil {
		_ = output.Close()
		return err
	}
	logger.Debug(
		"converted document",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("type", fmt.Sprintf("%T", document)),
	)
	return output.Close()
}

func checkFormats(engine *encoding.SpanEngine, from mimetype.MimeType, to mimetype.MimeType) error {
	if from != mimetype.UNKNOWN && !engine.HandlesDecode(from) {
		return xerrors.Errorf("cannot decode %v", from)
	}
	if to == mimetype.UNKNOWN || !engine.HandlesEncode(to) {
		return xerrors.Errorf("cannot encode %v", to)
	}
	return nil
}
