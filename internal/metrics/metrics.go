// Package metrics registers the service's Prometheus collectors. The
// /metrics endpoint is mounted by the router; the worker exposes its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hipotrack_messages_created_total",
			Help: "Messages persisted, labelled by sender role.",
		},
		[]string{"role"},
	)

	AttachmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hipotrack_attachments_created_total",
			Help: "Attachment rows persisted.",
		},
	)

	AttachmentBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hipotrack_attachment_bytes_total",
			Help: "Attachment payload bytes stored.",
		},
	)

	FeedEntriesIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hipotrack_feed_entries_indexed_total",
			Help: "Feed entries processed by the indexer worker, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	SearchQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hipotrack_search_queries_total",
			Help: "Search requests served.",
		},
	)

	NotificationsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hipotrack_notifications_published_total",
			Help: "Notification events published, labelled by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(MessagesCreated)
	prometheus.MustRegister(AttachmentsCreated)
	prometheus.MustRegister(AttachmentBytes)
	prometheus.MustRegister(FeedEntriesIndexed)
	prometheus.MustRegister(SearchQueries)
	prometheus.MustRegister(NotificationsPublished)
}
