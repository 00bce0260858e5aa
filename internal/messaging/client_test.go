package messaging_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

var baseTime = time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

func testViewer() *model.User {
	return &model.User{
		ID:    10,
		Name:  "Ana Ruiz",
		Email: "ana@example.com",
		Role:  model.RoleBorrower,
	}
}

func testDirectory() []model.Conversation {
	officer := model.Participant{UserID: 20, DisplayName: "Marco Díaz", Role: model.RoleLoanOfficer}
	viewer := model.Participant{UserID: 10, DisplayName: "Ana Ruiz", Role: model.RoleBorrower, IsViewer: true}

	return []model.Conversation{
		{
			ID:           2,
			UpdatedAt:    baseTime.Add(-time.Hour),
			Participants: []model.Participant{viewer, officer},
		},
		{
			ID:           1,
			UpdatedAt:    baseTime,
			Participants: []model.Participant{viewer, officer},
		},
	}
}

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		backend *mockBackend
		feed    *mockFeed
		client  *messaging.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &mockBackend{}
		feed = &mockFeed{}
		client = messaging.NewClient(backend, feed)
	})

	Describe("Start", func() {
		It("is a no-op without a viewer", func() {
			Expect(client.Start(ctx, nil)).To(Succeed())

			snap := client.Snapshot()
			Expect(snap.Directory).To(BeEmpty())
			Expect(snap.SelectedID).To(BeZero())
			Expect(backend.listConversationsCalls).To(BeZero())
		})

		It("loads the directory newest first and selects the most recent conversation", func() {
			backend.listConversationsFn = func(_ context.Context, viewerID int64) ([]model.Conversation, error) {
				Expect(viewerID).To(Equal(int64(10)))
				return testDirectory(), nil
			}
			backend.listMessagesFn = func(_ context.Context, conversationID int64) ([]model.Message, error) {
				Expect(conversationID).To(Equal(int64(1)))
				// Deliberately out of order; the cache must come back ascending.
				return []model.Message{
					{ID: 102, ConversationID: 1, Content: "second", CreatedAt: baseTime.Add(5 * time.Minute), Sender: model.Participant{UserID: 20, Role: model.RoleLoanOfficer}},
					{ID: 101, ConversationID: 1, Content: "first", CreatedAt: baseTime, Sender: model.Participant{UserID: 10, Role: model.RoleBorrower}},
				}, nil
			}

			Expect(client.Start(ctx, testViewer())).To(Succeed())

			snap := client.Snapshot()
			Expect(snap.Directory).To(HaveLen(2))
			Expect(snap.Directory[0].ID).To(Equal(int64(1)))
			Expect(snap.SelectedID).To(Equal(int64(1)))

			history := snap.MessagesFor(1)
			Expect(history).To(HaveLen(2))
			Expect(history[0].ID).To(Equal(int64(101)))
			Expect(history[1].ID).To(Equal(int64(102)))
			Expect(history[0].Status).To(Equal(model.DeliverySent))

			// Bare senders are resolved against the roster.
			Expect(history[1].Sender.DisplayName).To(Equal("Marco Díaz"))
		})

		It("surfaces a directory fetch failure without wiping state", func() {
			backend.listConversationsFn = func(_ context.Context, _ int64) ([]model.Conversation, error) {
				return nil, errors.New("connection refused")
			}

			err := client.Start(ctx, testViewer())
			Expect(err).To(HaveOccurred())

			snap := client.Snapshot()
			Expect(snap.Err).To(ContainSubstring("connection refused"))
			Expect(snap.Directory).To(BeEmpty())
		})
	})

	Describe("Select", func() {
		BeforeEach(func() {
			backend.listConversationsFn = func(_ context.Context, _ int64) ([]model.Conversation, error) {
				return testDirectory(), nil
			}
			Expect(client.Start(ctx, testViewer())).To(Succeed())
		})

		It("keeps the previous cache when the history fetch fails", func() {
			backend.listMessagesFn = func(_ context.Context, _ int64) ([]model.Message, error) {
				return nil, errors.New("timeout")
			}

			err := client.Select(ctx, 2)
			Expect(err).To(HaveOccurred())

			snap := client.Snapshot()
			Expect(snap.SelectedID).To(Equal(int64(2)))
			Expect(snap.Err).To(ContainSubstring("timeout"))
		})

		It("clears the selection for a zero id without fetching", func() {
			calls := backend.listMessagesCalls
			Expect(client.Select(ctx, 0)).To(Succeed())
			Expect(client.Snapshot().SelectedID).To(BeZero())
			Expect(backend.listMessagesCalls).To(Equal(calls))
		})
	})

	Describe("push feed", func() {
		BeforeEach(func() {
			backend.listConversationsFn = func(_ context.Context, _ int64) ([]model.Conversation, error) {
				return testDirectory(), nil
			}
			Expect(client.Start(ctx, testViewer())).To(Succeed())
		})

		It("merges a pushed message with a single attachment lookup and promotes the conversation", func() {
			backend.listAttachmentsFn = func(_ context.Context, messageID int64) ([]model.Attachment, error) {
				Expect(messageID).To(Equal(int64(501)))
				return []model.Attachment{{ID: 601, MessageID: 501, Name: "appraisal.pdf"}}, nil
			}

			row := model.Message{
				ID:             501,
				ConversationID: 2,
				Content:        "appraisal is in",
				CreatedAt:      baseTime.Add(10 * time.Minute),
				Sender:         model.Participant{UserID: 20, Role: model.RoleLoanOfficer},
			}
			feed.push(messaging.Event{Kind: messaging.EventMessageInserted, Message: &row})

			snap := client.Snapshot()
			history := snap.MessagesFor(2)
			Expect(history).To(HaveLen(1))
			Expect(history[0].ID).To(Equal(int64(501)))
			Expect(history[0].Status).To(Equal(model.DeliverySent))
			Expect(history[0].Attachments).To(HaveLen(1))
			Expect(history[0].Sender.DisplayName).To(Equal("Marco Díaz"))

			Expect(snap.Directory[0].ID).To(Equal(int64(2)))
			Expect(snap.Directory[0].LastMessage.ID).To(Equal(int64(501)))
		})

		It("ignores a duplicate push for a message already cached", func() {
			row := model.Message{ID: 501, ConversationID: 2, Content: "hi", CreatedAt: baseTime, Sender: model.Participant{UserID: 20}}
			feed.push(messaging.Event{Kind: messaging.EventMessageInserted, Message: &row})
			feed.push(messaging.Event{Kind: messaging.EventMessageInserted, Message: &row})

			Expect(client.Snapshot().MessagesFor(2)).To(HaveLen(1))
		})

		It("ignores a push for a conversation missing from the directory", func() {
			row := model.Message{ID: 900, ConversationID: 99, Content: "stray", CreatedAt: baseTime}
			feed.push(messaging.Event{Kind: messaging.EventMessageInserted, Message: &row})

			snap := client.Snapshot()
			Expect(snap.MessagesFor(99)).To(BeEmpty())
			Expect(snap.Directory[0].ID).To(Equal(int64(1)))
		})

		It("merges a pushed attachment into its message and the directory preview", func() {
			row := model.Message{ID: 501, ConversationID: 2, Content: "docs", CreatedAt: baseTime.Add(time.Minute), Sender: model.Participant{UserID: 20}}
			feed.push(messaging.Event{Kind: messaging.EventMessageInserted, Message: &row})

			att := model.Attachment{ID: 601, MessageID: 501, Name: "w2.pdf"}
			feed.push(messaging.Event{Kind: messaging.EventAttachmentInserted, Attachment: &att})
			// Same attachment again must not duplicate.
			feed.push(messaging.Event{Kind: messaging.EventAttachmentInserted, Attachment: &att})

			snap := client.Snapshot()
			history := snap.MessagesFor(2)
			Expect(history[0].Attachments).To(HaveLen(1))
			Expect(history[0].Attachments[0].Status).To(Equal(model.DeliverySent))
			Expect(snap.Directory[0].LastMessage.Attachments).To(HaveLen(1))
		})
	})

	Describe("Close", func() {
		It("releases the feed subscription", func() {
			backend.listConversationsFn = func(_ context.Context, _ int64) ([]model.Conversation, error) {
				return testDirectory(), nil
			}
			Expect(client.Start(ctx, testViewer())).To(Succeed())

			client.Close()
			Expect(feed.stopped).To(BeTrue())
		})
	})
})
