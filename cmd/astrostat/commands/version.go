package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/pkg/persist"
	"github.com/Sumatoshi-tech/astrostat/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Version needs neither configuration nor telemetry.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return persist.NewJSONCodec().Encode(cmd.OutOrStdout(), info)
			}

			_, err := cmd.OutOrStdout().Write([]byte(info.String() + "\n"))

			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
