package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// buildInfo describes the running ort binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
}

func (b buildInfo) String() string {
	if b.Commit == "" {
		return fmt.Sprintf("ort %s (%s)", b.Version, b.GoVersion)
	}
	return fmt.Sprintf("ort %s (commit %s, %s)", b.Version, b.Commit, b.GoVersion)
}

// currentBuild prefers the -ldflags version, then the module version
// recorded by `go install`, and picks up the VCS revision when present.
func currentBuild() buildInfo {
	b := buildInfo{Version: Version, GoVersion: runtime.Version()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			b.Commit = s.Value
			if len(b.Commit) > 12 {
				b.Commit = b.Commit[:12]
			}
		}
	}
	return b
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ort version and build details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := currentBuild()
			if isJSON() {
				return printJSON(b)
			}
			fmt.Println(b)
			return nil
		},
	}
}
