// Package cli implements the spanmarshal command line tool.
package cli

import (
	"io"
	"os"

	"github.com/illuscio-dev/spanmarshal-go/config"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	options := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "spanmarshal",
		Short: "Convert documents between object formats",
		Long: `spanmarshal decodes a document from one mimetype and encodes it to another.

Supported outputs include JSON, BSON, YAML, XML, N-Triples, Turtle, XML Schema and the
JSON metaschema. Formats can be named by mimetype or short name, such as "json",
"xml", "ttl", "nt", "xsd" or "schema".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(
		&options.configPath, "config", "", "path to a spanmarshal YAML config file",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.verbose, "verbose", false, "log at debug level in development format",
	)

	rootCmd.AddCommand(newConvertCommand(options))
	rootCmd.AddCommand(newSchemaCommand(options))
	rootCmd.AddCommand(newFormatsCommand(options))

	return rootCmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Builds the content engine described by the config file.
func (options *rootOptions) engine() (*encoding.SpanEngine, *zap.Logger, error) {
	logger, err := newLogger(options.verbose)
	if err != nil {
		return nil, nil, xerrors.Errorf("error creating logger: %w", err)
	}

	file, err := config.Load(options.configPath)
	if err != nil {
		return nil, nil, err
	}
	serializerConfig, err := file.ToSerializerConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := file.Schema.Store()
	if err != nil {
		return nil, nil, err
	}

	engine, err := encoding.NewContentEngine(
		file.Engine.Sniff,
		encoding.WithConfig(serializerConfig),
		encoding.WithLogger(logger),
		encoding.WithSchemaStore(store, file.Schema.TTL()),
	)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug(
		"engine ready",
		zap.String("config", options.configPath),
		zap.String("schema_cache", file.Schema.Cache),
	)
	return engine, logger, nil
}

// Opens the input named by args, or stdin.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	file, err := os.Open(args[0])
	if err != nil {
		return nil, xerrors.Errorf("error opening input: %w", err)
	}
	return file, nil
}

// Opens the output file, or stdout when path is empty.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, xerrors.Errorf("error creating output: %w", err)
	}
	return file, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
