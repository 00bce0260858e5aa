package backend_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XadielF/hipotrack/internal/backend"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

var _ = Describe("Postgres", func() {
	var (
		ctx           context.Context
		conversations *mockConversationStore
		messages      *mockMessageStore
		runner        *mockTxRunner
		publisher     *mockPublisher
		pg            *backend.Postgres
	)

	params := messaging.InsertMessageParams{
		ConversationID: 1,
		SenderID:       10,
		SenderRole:     model.RoleBorrower,
		Content:        "When is closing?",
		CorrelationKey: "1b4e28ba-2fa1-41d2-883f-0016d3cca427",
	}

	BeforeEach(func() {
		ctx = context.Background()
		conversations = &mockConversationStore{}
		messages = &mockMessageStore{}
		runner = &mockTxRunner{provider: &mockStoreProvider{
			conversations: conversations,
			messages:      messages,
		}}
		publisher = &mockPublisher{}
		pg = backend.NewPostgres(nil, runner, publisher, "http://localhost:8080/files")
	})

	Describe("InsertMessage", func() {
		It("creates the row and bumps the conversation in one transaction", func() {
			msg, err := pg.InsertMessage(ctx, params)
			Expect(err).NotTo(HaveOccurred())

			Expect(runner.calls).To(Equal(1))
			Expect(messages.createCalls).To(Equal(1))
			Expect(conversations.touchCalls).To(Equal([]int64{1}))

			Expect(msg.ID).NotTo(BeZero())
			Expect(msg.Status).To(Equal(model.DeliverySent))
			Expect(msg.CorrelationKey).To(Equal(params.CorrelationKey))
		})

		It("publishes the insert after the transaction commits", func() {
			msg, err := pg.InsertMessage(ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.published).To(Equal([]int64{msg.ID}))
		})

		It("aborts the transaction and skips the publish when the bump fails", func() {
			conversations.touchFn = func(_ context.Context, _ int64) error {
				return errors.New("connection refused")
			}

			_, err := pg.InsertMessage(ctx, params)
			Expect(err).To(HaveOccurred())
			Expect(publisher.published).To(BeEmpty())
		})

		It("does not fail the insert when the publish fails", func() {
			publisher.messageInsertedFn = func(_ context.Context, _ model.Message) error {
				return errors.New("redis unavailable")
			}

			msg, err := pg.InsertMessage(ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).NotTo(BeNil())
		})
	})

	Describe("PublicURL", func() {
		It("joins the base and the storage ref with a single slash", func() {
			Expect(pg.PublicURL("conversations/1/messages/7001/w2-2025.pdf")).
				To(Equal("http://localhost:8080/files/conversations/1/messages/7001/w2-2025.pdf"))
		})
	})
})
