package cli

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped at release time:
//
//	go build -ldflags "-X github.com/ppiankov/regress/internal/cli.version=v1.2.0" ./cmd/regress
var version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := json.MarshalIndent(versionInfo(), "", "  ")
		fmt.Fprintln(cmdOut(cmd), string(out))
	},
}

// versionInfo falls back to the module version and VCS revision recorded
// by the Go toolchain when no version was stamped.
func versionInfo() map[string]string {
	info := map[string]string{
		"name":    "regress",
		"version": version,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info["version"] = bi.Main.Version
	}
	info["go"] = bi.GoVersion
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info["commit"] = s.Value
		}
	}
	return info
}
