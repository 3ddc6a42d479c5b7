/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/mq"
	"github.com/spf13/cobra"
)

var tailChannel string

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Prints the messages published on a channel",
	Long: `Subscribes to a message queue channel and prints every message body,
one JSON document per line. Usage:

	livefeed tail --channel scoreboard
	livefeed tail --channel contest-updates
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.New(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer broker.Close()

		out := cmd.OutOrStdout()
		err = broker.Subscribe(ctx, tailChannel, func(_ context.Context, msg mq.Message) error {
			_, err := fmt.Fprintf(out, "%s\n", msg.Data)
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().StringVar(&tailChannel, "channel", mq.ChannelScoreboard, "channel to follow")
}
