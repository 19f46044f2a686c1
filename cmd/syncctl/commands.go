package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
	"github.com/noatdk/yt-stream-discord-sync/internal/syncd"
	"github.com/noatdk/yt-stream-discord-sync/internal/timestamp"
)

func newRelayClient() *syncd.Client {
	return syncd.NewClient(cfg.Sync.RelayURL, 5*time.Second, logger)
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Print the relay's latest timestamp record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newRelayClient().Ping(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}
}

func pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push GMT",
		Short: "Push a timestamp to the relay (e.g. 2025-11-28T21:00:00.000Z)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := timestamp.Parse(args[0]); err != nil {
				return fmt.Errorf("%q is not a canonical UTC timestamp", args[0])
			}

			redirect, err := newRelayClient().Push(cmd.Context(), relay.Record{"gmt": args[0]})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "pushed %s\n", args[0])
			if redirect != "" {
				fmt.Fprintf(os.Stdout, "redirect pending: %s\n", redirect)
			}
			return nil
		},
	}
}

func redirectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redirect TIMESTAMP",
		Short: "Arm a one-shot redirect for the producer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := timestamp.Parse(args[0]); err != nil {
				return fmt.Errorf("%q is not a canonical UTC timestamp", args[0])
			}

			if err := newRelayClient().Redirect(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "redirect armed: %s\n", args[0])
			return nil
		},
	}
}

// pushRecord pushes one record, surfacing any redirect the relay delivers.
func pushRecord(ctx context.Context, client *syncd.Client, rec relay.Record) error {
	redirect, err := client.Push(ctx, rec)
	if err != nil {
		return err
	}
	if redirect != "" {
		fmt.Fprintf(os.Stdout, "redirect pending: %s\n", redirect)
	}
	return nil
}
