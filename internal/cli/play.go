package cli

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("mock-engine", false, "Use the in-memory engine instead of mpv")
	lo.Must0(cmd.Flags().MarkHidden("mock-engine"))
}

func newPlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file or url>",
		Short: "Open a file or http(s) url and start playing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd, session{
				ref:      args[0],
				start:    lo.Must(cmd.Flags().GetDuration("start")),
				headless: lo.Must(cmd.Flags().GetBool("headless")),
				windowID: lo.Must(cmd.Flags().GetInt64("wid")),
				mock:     lo.Must(cmd.Flags().GetBool("mock-engine")),
			})
		},
	}
	cmd.Flags().DurationP("start", "s", 0, "Position to start playing from")
	cmd.Flags().Bool("headless", false, "Skip the control window; mpv shows its own")
	cmd.Flags().Int64("wid", 0, "Native window id to render video into")
	addEngineFlags(cmd)
	return cmd
}

func newUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Show the player window without opening anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd, session{
				mock: lo.Must(cmd.Flags().GetBool("mock-engine")),
			})
		},
	}
	addEngineFlags(cmd)
	return cmd
}
