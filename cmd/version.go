package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/delivery-api/api/version"
	"github.com/killallgit/delivery-api/internal/services/exporters"
)

// Set with -ldflags "-X github.com/killallgit/delivery-api/cmd.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the build version, commit and the delivery formats this binary
can export. Use --json for the same document the /version endpoint serves.`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "print just the version number")
	versionCmd.Flags().Bool("json", false, "print build info as JSON")
}

// buildInfo is the version served by the API
func buildInfo() version.Info {
	return version.Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := buildInfo()

	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Fprintf(out, "v%s\n", info.Version)
		return nil
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "delivery-api v%s (%s, built %s)\n", info.Version, info.GitCommit, info.BuildTime)
	fmt.Fprintf(out, "Go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "Exports:  %s\n", strings.Join(formatNames(exporters.Formats()), ", "))
	fmt.Fprintf(out, "Defaults: %s\n", strings.Join(formatNames(exporters.DefaultFormats), ","))
	return nil
}

func formatNames(formats []exporters.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
