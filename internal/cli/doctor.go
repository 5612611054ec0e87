package cli

import (
	"os"

	"github.com/spf13/cobra"

	"slurm_usage/internal/app"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [ssh-target]",
	Short: "Run non-mutating environment checks and exit",
	Long: `Validates that the accounting tools are reachable and the Slurm version is
supported, without issuing any usage query.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(args)
		if err != nil {
			return err
		}
		return app.RunDoctor(opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
