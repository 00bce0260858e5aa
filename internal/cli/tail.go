package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

func init() {
	rootCmd.AddCommand(tailCmd)
}

var tailCmd = &cobra.Command{
	Use:   "tail [conversation-id]",
	Short: "Stream new messages as they arrive (Ctrl-C to stop)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var conversationID int64
		if len(args) == 1 {
			parsed, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation id %q", args[0])
			}
			conversationID = parsed
		}

		// Print every message the state picks up that we have not shown
		// yet. The onChange hook runs under the client's lock, so it only
		// records ids; printing happens on the main goroutine.
		seen := make(map[int64]bool)
		updates := make(chan messaging.State, 16)
		onChange := func(s messaging.State) {
			select {
			case updates <- s:
			default:
			}
		}

		s, err := connect(ctx, messaging.WithOnChange(onChange))
		if err != nil {
			return err
		}
		defer s.Close()

		if conversationID != 0 {
			if err := s.client.Select(ctx, conversationID); err != nil {
				return err
			}
		}

		// Seed with what is already cached so only new arrivals print.
		markSeen(s.client.Snapshot(), seen)

		fmt.Println("Waiting for messages...")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		for {
			select {
			case <-quit:
				return nil
			case snap := <-updates:
				printNew(snap, conversationID, seen)
			}
		}
	},
}

func markSeen(snap messaging.State, seen map[int64]bool) {
	for _, messages := range snap.Messages {
		for _, msg := range messages {
			seen[msg.ID] = true
		}
	}
}

func printNew(snap messaging.State, conversationID int64, seen map[int64]bool) {
	for convID, messages := range snap.Messages {
		if conversationID != 0 && convID != conversationID {
			continue
		}
		for _, msg := range messages {
			if seen[msg.ID] || msg.Status == model.DeliveryPending {
				continue
			}
			seen[msg.ID] = true
			fmt.Printf("[conversation %d]\n", convID)
			printMessage(msg)
		}
	}
}
