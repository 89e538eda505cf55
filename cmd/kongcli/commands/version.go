package commands

import (
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/view"
)

// NewVersionCommand creates the version command. The version also becomes
// the User-Agent of admin API requests.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	userAgent = "kongcli/" + version

	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the kongcli binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			table := view.Table{
				Headers: []string{"Property", "Value"},
				Rows: [][]string{
					{"Version", version},
					{"Commit", commit},
					{"Built", date},
				},
			}

			return render(cmd, VersionInfo{Version: version, Commit: commit, Built: date}, table, "")
		},
	}
}
