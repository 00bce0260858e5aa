package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/XadielF/hipotrack/internal/model"
)

func init() {
	rootCmd.AddCommand(messagesCmd)
}

var messagesCmd = &cobra.Command{
	Use:   "messages <conversation-id>",
	Short: "Print the full history of one conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		conversationID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.client.Select(ctx, conversationID); err != nil {
			return err
		}

		snap := s.client.Snapshot()
		messages := snap.MessagesFor(conversationID)
		if len(messages) == 0 {
			fmt.Println("No messages.")
			return nil
		}

		for _, msg := range messages {
			printMessage(msg)
		}
		return nil
	},
}

func printMessage(msg model.Message) {
	marker := ""
	switch msg.Status {
	case model.DeliveryPending:
		marker = " [sending]"
	case model.DeliveryError:
		marker = " [failed]"
	}

	header := fmt.Sprintf("%s  %s (%s)%s",
		msg.CreatedAt.Format("Jan 2 15:04"),
		msg.Sender.DisplayName,
		msg.Sender.Role,
		marker)
	if msg.Topic != nil && *msg.Topic != "" {
		header += "  #" + *msg.Topic
	}

	fmt.Println(header)
	fmt.Println("  " + msg.Content)
	for _, att := range msg.Attachments {
		line := "  📎 " + att.Name
		if att.Status == model.DeliveryError {
			line += " [failed]"
		} else if att.URL != nil {
			line += "  " + *att.URL
		}
		fmt.Println(line)
	}
}
