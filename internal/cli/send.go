package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

var (
	sendTopic string
	sendFiles []string
)

func init() {
	sendCmd.Flags().StringVarP(&sendTopic, "topic", "t", "", "topic tag for the message")
	sendCmd.Flags().StringArrayVarP(&sendFiles, "file", "f", nil, "attach a file (repeatable)")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> <content...>",
	Short: "Send a message, optionally with attachments",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		conversationID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}
		content := strings.Join(args[1:], " ")

		files, err := readFiles(sendFiles)
		if err != nil {
			return err
		}

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		input := messaging.SendInput{
			ConversationID: conversationID,
			Content:        content,
			Files:          files,
		}
		if sendTopic != "" {
			input.Topic = &sendTopic
		}

		if err := s.client.Send(ctx, input); err != nil {
			// Attachment failures are partial: the message text went
			// through, so show what landed before returning the error.
			printDelivered(s.client.Snapshot(), conversationID)
			return err
		}

		printDelivered(s.client.Snapshot(), conversationID)
		return nil
	},
}

func readFiles(paths []string) ([]messaging.LocalFile, error) {
	files := make([]messaging.LocalFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		files = append(files, messaging.LocalFile{
			Name:        name,
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			Data:        data,
		})
	}
	return files, nil
}

func printDelivered(snap messaging.State, conversationID int64) {
	messages := snap.MessagesFor(conversationID)
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	switch last.Status {
	case model.DeliverySent:
		fmt.Printf("Sent (message %d, %d attachments).\n", last.ID, len(last.Attachments))
	case model.DeliveryError:
		fmt.Printf("Message %d delivered with errors:\n", last.ID)
		for _, att := range last.Attachments {
			if att.Status == model.DeliveryError {
				fmt.Printf("  %s failed\n", att.Name)
			}
		}
	}
}
