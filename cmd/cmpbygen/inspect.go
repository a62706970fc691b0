package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/cmpby/compiler"
	"github.com/syssam/cmpby/compiler/gen"
)

// ValidFormats defines the allowed output formats of inspect.
var ValidFormats = []string{"json", "yaml"}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect [patterns]",
		Short: "Print the comparison plan of annotated types",
		Long: `Inspect runs the generator pipeline without writing files and prints, per
package, the keys of every annotated type in comparison order with the
operation chosen for each capability, followed by the diagnostics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(ValidFormats, format) {
				return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Logger.Sync() }()
			ins, err := compiler.Inspect(cmd.Context(), cfg, args...)
			if err != nil {
				return err
			}
			return writeInspections(cmd.OutOrStdout(), format, ins)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format (json|yaml)")
	return cmd
}

func writeInspections(w io.Writer, format string, ins []*gen.Inspection) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ins); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	}
}
