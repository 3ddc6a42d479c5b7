/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/db"
	"github.com/jjudge-oj/livefeed/internal/services"
	"github.com/jjudge-oj/livefeed/internal/storage"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportFeed string
	exportKey  string
)

// archiveCmd represents the archive command.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and export the event archive",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived feeds with their event counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		feeds, err := services.NewArchiveService(store.NewEventRepository(conn)).Feeds(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list feeds: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(feeds)
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload an archived feed as ndjson to object storage",
	Long: `Writes the archived events of a feed to the configured bucket, where it
can be replayed with CLICS_FEED_URLS=object://<key>. Usage:

	livefeed archive export --feed main --key finals/event-feed.ndjson
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		objects, err := storage.New(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		key := exportKey
		if key == "" {
			key = exportFeed + ".ndjson"
		}
		archive := services.NewArchiveService(store.NewEventRepository(conn))
		count, err := archive.Export(cmd.Context(), objects, exportFeed, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d events of %s to %s/%s\n", count, exportFeed, objects.Bucket(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveExportCmd)

	archiveExportCmd.Flags().StringVar(&exportFeed, "feed", "", "archived feed name")
	archiveExportCmd.Flags().StringVar(&exportKey, "key", "", "object key, <feed>.ndjson by default")
	_ = archiveExportCmd.MarkFlagRequired("feed")
}
