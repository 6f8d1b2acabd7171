package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fuelpipe/pkg/contracts"
)

// versionInfo prints as the full version string in text mode
type versionInfo struct {
	contracts.VersionInfo
}

func (v versionInfo) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, contracts.GetFullVersionString())
	return err
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(versionInfo{contracts.GetVersionInfo()})
		},
	}
}
