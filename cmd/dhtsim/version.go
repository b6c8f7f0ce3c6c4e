package dhtsim

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set by the build, mirroring the teacher's plain-string build
// metadata approach rather than a vendored version package.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the dhtsim build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
