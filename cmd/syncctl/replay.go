package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/journal"
	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
	"github.com/noatdk/yt-stream-discord-sync/internal/timestamp"
)

func replayCmd() *cobra.Command {
	var fast bool

	cmd := &cobra.Command{
		Use:   "replay JOURNAL",
		Short: "Re-push a recorded session to the relay",
		Long: `Replay a push journal recorded by the relay (relay.journal_path).

Records are pushed in order, paced by the gaps between their gmt values,
so a recorded sync session can be reproduced against a live consumer.

Examples:
  # Replay at the original pacing
  syncctl replay session.jsonl.zst

  # Replay as fast as the relay accepts
  syncctl replay --fast session.jsonl.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := journal.Read(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("journal %s is empty", args[0])
			}

			client := newRelayClient()
			logger.Info("replaying journal",
				zap.String("path", args[0]),
				zap.Int("records", len(records)),
				zap.Bool("fast", fast),
			)

			var prev time.Time
			for i, rec := range records {
				gmt, _ := rec["gmt"].(string)
				t, err := timestamp.Parse(gmt)
				if err != nil {
					logger.Warn("skipping record with bad gmt", zap.Int("index", i), zap.String("gmt", gmt))
					continue
				}

				if !fast && !prev.IsZero() {
					if gap := t.Sub(prev); gap > 0 {
						select {
						case <-cmd.Context().Done():
							return cmd.Context().Err()
						case <-time.After(gap):
						}
					}
				}
				prev = t

				if err := pushRecord(cmd.Context(), client, relay.Record(rec)); err != nil {
					return fmt.Errorf("pushing record %d: %w", i, err)
				}
				logger.Debug("replayed", zap.Int("index", i), zap.String("gmt", gmt))
			}

			logger.Info("replay complete", zap.Int("records", len(records)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fast, "fast", false, "ignore original pacing")
	return cmd
}
