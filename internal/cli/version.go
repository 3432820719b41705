package cli

import (
	"fmt"

	"github.com/acmprop/acmprop/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("acmprop %s (%s, %s)\n", version.Version, version.Commit, version.BuildDate)
		},
	}
}
