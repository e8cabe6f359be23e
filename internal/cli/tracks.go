package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	fyneui "github.com/sukerxi/mpvbridge/internal/adapter/ui/fyne"
	"github.com/sukerxi/mpvbridge/internal/app"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/service"
)

type trackRow struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
	External bool   `json:"external"`
}

func newTracksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks <file or url>",
		Short: "Load media without playing it and list its tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout := lo.Must(cmd.Flags().GetDuration("timeout"))
			asJSON := lo.Must(cmd.Flags().GetBool("json"))

			cfg := app.ConfigFromViper()
			cfg.Headless = true
			cfg.UseMockEngine = lo.Must(cmd.Flags().GetBool("mock-engine"))

			application, err := app.NewApplication(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := application.Open(ctx, args[0], 0); err != nil {
				return err
			}
			catalog, err := application.WaitForTracks(ctx)
			if err != nil {
				return fmt.Errorf("waiting for tracks: %w", err)
			}
			return printTracks(cmd.OutOrStdout(), catalog, asJSON)
		},
	}
	cmd.Flags().Duration("timeout", 15*time.Second, "How long to wait for the track list")
	cmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	addEngineFlags(cmd)
	return cmd
}

func printTracks(w io.Writer, catalog *service.TrackCatalog, asJSON bool) error {
	rows := lo.Map(catalog.Tracks(), func(t domain.MediaTrack, _ int) trackRow {
		return trackRow{
			ID:       t.ID,
			Type:     t.Type.String(),
			Label:    fyneui.TrackLabel(t),
			Selected: t.Selected,
			External: t.External,
		}
	})

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, r := range rows {
		marker := " "
		if r.Selected {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %-8s %3d  %s\n", marker, r.Type, r.ID, r.Label); err != nil {
			return err
		}
	}
	return nil
}
