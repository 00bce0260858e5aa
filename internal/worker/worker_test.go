package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/trace"

	"github.com/XadielF/hipotrack/internal/feed"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/search"
	"github.com/XadielF/hipotrack/internal/worker"
)

type mockIndex struct {
	ensureCollectionFn func(ctx context.Context) error
	indexMessageFn     func(ctx context.Context, msg model.Message) error
	searchFn           func(ctx context.Context, query string, conversationIDs []int64, limit int) ([]search.Result, error)
}

func (m *mockIndex) EnsureCollection(ctx context.Context) error {
	if m.ensureCollectionFn != nil {
		return m.ensureCollectionFn(ctx)
	}
	return nil
}

func (m *mockIndex) IndexMessage(ctx context.Context, msg model.Message) error {
	if m.indexMessageFn != nil {
		return m.indexMessageFn(ctx, msg)
	}
	return nil
}

func (m *mockIndex) Search(ctx context.Context, query string, conversationIDs []int64, limit int) ([]search.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, conversationIDs, limit)
	}
	return nil, nil
}

var _ = Describe("ProcessEntry", func() {
	var (
		ctx   context.Context
		index *mockIndex
		w     *worker.Worker
	)

	messageEntry := func(traceID string) feed.Entry {
		return feed.Entry{
			ID:      "1700000000000-0",
			TraceID: traceID,
			Event: messaging.Event{
				Kind: messaging.EventMessageInserted,
				Message: &model.Message{
					ID:             7001,
					ConversationID: 1,
					Content:        "Your appraisal came back",
					CreatedAt:      time.Now(),
				},
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		index = &mockIndex{}
		w = worker.New(nil, nil, index, nil)
	})

	It("indexes the inserted message", func() {
		var indexed *model.Message
		index.indexMessageFn = func(_ context.Context, msg model.Message) error {
			indexed = &msg
			return nil
		}

		Expect(w.ProcessEntry(ctx, messageEntry(""))).To(Succeed())
		Expect(indexed).NotTo(BeNil())
		Expect(indexed.ID).To(Equal(int64(7001)))
	})

	It("links processing to the trace of the originating request", func() {
		const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"

		var seen trace.SpanContext
		index.indexMessageFn = func(handlerCtx context.Context, _ model.Message) error {
			seen = trace.SpanContextFromContext(handlerCtx)
			return nil
		}

		Expect(w.ProcessEntry(ctx, messageEntry(traceID))).To(Succeed())
		Expect(seen.TraceID().String()).To(Equal(traceID))
		Expect(seen.IsRemote()).To(BeTrue())
	})

	It("tolerates entries without a trace id", func() {
		Expect(w.ProcessEntry(ctx, messageEntry(""))).To(Succeed())
	})

	It("surfaces indexing failures for redelivery", func() {
		index.indexMessageFn = func(_ context.Context, _ model.Message) error {
			return errors.New("typesense unavailable")
		}

		Expect(w.ProcessEntry(ctx, messageEntry(""))).NotTo(Succeed())
	})

	It("rejects unknown event kinds", func() {
		err := w.ProcessEntry(ctx, feed.Entry{
			ID:    "1700000000000-1",
			Event: messaging.Event{Kind: "reaction"},
		})
		Expect(err).To(HaveOccurred())
	})
})
