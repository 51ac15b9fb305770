package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cicdguard/backend/internal/config"
	"github.com/cicdguard/backend/internal/queue"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/spf13/cobra"
)

func notifyCmd() *cobra.Command {
	var (
		status string
		target string
	)

	cmd := &cobra.Command{
		Use:   "notify <scanner>",
		Short: "Announce a finished scan so open views reload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := queue.ScanCompleted{
				Scanner:    args[0],
				Status:     status,
				Target:     target,
				FinishedAt: time.Now().UTC(),
			}
			body, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if _, err := queue.ParseScanCompleted(body); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			conn, err := queue.Init(cmd.Context(), cfg.QueueURL)
			if err != nil {
				return fmt.Errorf("connect to rabbitmq: %w", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return err
			}
			defer ch.Close()

			if err := queue.SetupQueues(ch, []string{cfg.ScanQueue}); err != nil {
				return err
			}
			if err := queue.PublishFIFO(cmd.Context(), ch, cfg.ScanQueue, body); err != nil {
				return fmt.Errorf("publish: %w", err)
			}

			logger.Debug("[Notify] Published scan message", "queue", cfg.ScanQueue, "scanner", msg.Scanner)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s scan %s\n", brand.Sprint("sent"), msg.Scanner, msg.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "success", "scan result (success or failed)")
	cmd.Flags().StringVar(&target, "target", "", "scanned system")

	return cmd
}
