package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XadielF/hipotrack/internal/model"
)

func init() {
	rootCmd.AddCommand(conversationsCmd)
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List your conversations, newest activity first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		snap := s.client.Snapshot()
		if len(snap.Directory) == 0 {
			fmt.Println("No conversations.")
			return nil
		}

		for _, conv := range snap.Directory {
			fmt.Printf("%d  %s\n", conv.ID, conversationTitle(conv, s.viewer.ID))
			if conv.LastMessage != nil {
				fmt.Printf("    %s: %s (%s)\n",
					conv.LastMessage.Sender.DisplayName,
					firstLine(conv.LastMessage.Content),
					conv.LastMessage.CreatedAt.Format("Jan 2 15:04"))
			}
		}
		return nil
	},
}

// conversationTitle prefers the stored title and falls back to the other
// participants' names.
func conversationTitle(conv model.Conversation, viewerID int64) string {
	if conv.Title != nil && *conv.Title != "" {
		return *conv.Title
	}
	var names []string
	for _, p := range conv.Participants {
		if p.UserID != viewerID {
			names = append(names, p.DisplayName)
		}
	}
	if len(names) == 0 {
		return "(just you)"
	}
	return strings.Join(names, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80] + "…"
	}
	return s
}
