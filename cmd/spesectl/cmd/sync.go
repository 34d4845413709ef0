package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spesevoce/internal/amqp"
	"spesevoce/internal/backend"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Replace the spreadsheet content with the local expenses",
	Run: func(cmd *cobra.Command, args []string) {
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			n, err := b.Sync.Upload(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %d expenses\n", n)
			return nil
		})
		exitOnError(err, "upload failed")
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Replace the local expenses with the spreadsheet content",
	Run: func(cmd *cobra.Command, args []string) {
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			n, err := b.Sync.Download(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded %d expenses\n", n)
			return nil
		})
		exitOnError(err, "download failed")
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <transcript>",
	Short: "Queue a transcript for the worker instead of processing it here",
	Long: `Publishes a transcript result message to the configured AMQP
exchange. spesevoce-worker picks it up and runs the pipeline.

Example:
  spesectl publish "обед 15 евро"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.AMQPURL == "" {
			exitOnError(fmt.Errorf("AMQP_URL is not set"), "cannot publish")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		exitOnError(err, "failed to connect to AMQP")
		defer client.Close()

		msg := amqp.NewTranscriptMessage(strings.Join(args, " "))
		exitOnError(client.PublishTranscript(cmd.Context(), msg), "publish failed")
		fmt.Println("Transcript queued")
	},
}
