package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/output"
	"github.com/dshills/strata/internal/source"
)

var methodDescriptions = map[merge.Method]string{
	merge.Simple:     "shallow: mapping keys are replaced whole, sequences merge by index",
	merge.Deep:       "merge mappings recursively; sequences are unioned",
	merge.Substitute: "merge mappings recursively; sequences are replaced",
}

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List merge methods, readers and output formats",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(stdout, "methods:")
		for _, m := range merge.Methods() {
			fmt.Fprintf(stdout, "  %d  %-10s  %s\n", int(m), m, methodDescriptions[m])
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "readers:")
		for _, r := range source.ReaderNames() {
			fmt.Fprintf(stdout, "  - %s\n", r)
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "formats:")
		for _, f := range output.Formats() {
			fmt.Fprintf(stdout, "  - %s\n", f)
		}
	},
}
