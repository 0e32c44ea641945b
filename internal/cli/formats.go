package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFormatsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported mimetypes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := root.engine()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, mimeType := range engine.EncodeTypes() {
				mode := "encode"
				if engine.HandlesDecode(mimeType) {
					mode = "encode, decode"
				}
				if _, err := fmt.Fprintf(out, "%-26s %s\n", mimeType, mode); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
