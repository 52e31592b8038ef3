package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"contentboard/internal/status"
)

var contentsByStatusDesc = prometheus.NewDesc(
	"contentboard_contents",
	"Number of contents per board column",
	[]string{"status"},
	nil,
)

var (
	contentMoves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentboard_content_moves_total",
		Help: "Content status changes made from the board, by target column",
	}, []string{"to"})

	requestConversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentboard_request_conversions_total",
		Help: "Accept-and-convert calls by outcome",
	}, []string{"outcome"})

	linksIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contentboard_approval_links_issued_total",
		Help: "Approval links issued",
	})

	linkResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentboard_approval_resolutions_total",
		Help: "Public approval submissions by outcome",
	}, []string{"outcome"})
)

// StatusCounter reads the current number of contents per status.
type StatusCounter interface {
	CountContentsByStatus(ctx context.Context) (map[status.Key]int64, error)
}

// StatusCollector is a custom Prometheus collector that reads content counts
// from the database on each scrape.
type StatusCollector struct {
	source StatusCounter
}

// NewStatusCollector returns a collector reading from source.
func NewStatusCollector(source StatusCounter) *StatusCollector {
	return &StatusCollector{source: source}
}

// Describe sends the metric descriptor to the channel.
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- contentsByStatusDesc
}

// Collect emits one gauge per registered status, zero included.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.source.CountContentsByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect content status metrics")
		return
	}
	for _, e := range status.NewRegistry(nil).Entries() {
		ch <- prometheus.MustNewConstMetric(
			contentsByStatusDesc,
			prometheus.GaugeValue,
			float64(counts[e.Key]),
			string(e.Key),
		)
	}
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(source StatusCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			NewStatusCollector(source),
			contentMoves,
			requestConversions,
			linksIssued,
			linkResolutions,
		)
	})
}

// RecordMove counts a content moved to another column.
func RecordMove(to status.Key) {
	contentMoves.WithLabelValues(string(to)).Inc()
}

// RecordConversion counts an accept call; created is false for idempotent repeats.
func RecordConversion(created bool) {
	outcome := "existing"
	if created {
		outcome = "created"
	}
	requestConversions.WithLabelValues(outcome).Inc()
}

// RecordLinkIssued counts an issued approval link.
func RecordLinkIssued() {
	linksIssued.Inc()
}

// RecordResolution counts a public approval submission. Outcome is the stored
// decision on success, or the failure kind.
func RecordResolution(outcome string) {
	linkResolutions.WithLabelValues(outcome).Inc()
}
