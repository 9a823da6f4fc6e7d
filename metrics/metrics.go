// Package metrics holds the Prometheus counters for scraper runs,
// labeled by scraper name
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/sig-0/offersync/storage/types"
)

const namespace = "offersync"

// Collector is the metrics registry for the scrapers
type Collector struct {
	registry *prometheus.Registry

	offersFetched   *prometheus.CounterVec
	offersPublished *prometheus.CounterVec
	offersRejected  *prometheus.CounterVec
	tasks           *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	runs            *prometheus.CounterVec
}

// New creates a new collector on its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		offersFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_fetched_total",
				Help:      "Total number of offers fetched from the marketplace",
			},
			[]string{"scraper"},
		),

		offersPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_published_total",
				Help:      "Total number of offers accepted by the downstream API",
			},
			[]string{"scraper"},
		),

		offersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_rejected_total",
				Help:      "Total number of offers whose publish failed",
			},
			[]string{"scraper"},
		),

		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Total number of orchestrated units of work, by final state",
			},
			[]string{"scraper", "state"},
		),

		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Duration of orchestrated units of work in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"scraper"},
		),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of completed driver runs",
			},
			[]string{"scraper"},
		),
	}

	c.registry.MustRegister(
		c.offersFetched,
		c.offersPublished,
		c.offersRejected,
		c.tasks,
		c.taskDuration,
		c.runs,
	)

	return c
}

// Handler returns the Prometheus exposition handler for the registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry: c.registry,
	})
}

// CountOffers adds the unit result to the offer counters of its scraper
func (c *Collector) CountOffers(result *types.UnitResult) {
	if result == nil {
		return
	}

	scraper := result.Scraper.String()

	c.offersFetched.WithLabelValues(scraper).Add(float64(result.Fetched))
	c.offersPublished.WithLabelValues(scraper).Add(float64(result.Published))
	c.offersRejected.WithLabelValues(scraper).Add(float64(result.Rejected))
}

// ObserveTask records a finished orchestrated task
func (c *Collector) ObserveTask(rec *types.TaskRecord) {
	scraper := rec.Scraper.String()

	c.tasks.WithLabelValues(scraper, rec.State.String()).Inc()
	c.taskDuration.WithLabelValues(scraper).Observe(
		rec.FinishedAt.Sub(rec.StartedAt).Seconds(),
	)

	if !rec.Completed() {
		return
	}

	c.CountOffers(&types.UnitResult{
		Unit:      rec.Unit,
		Fetched:   rec.Fetched,
		Published: rec.Published,
		Rejected:  rec.Rejected,
	})
}

// ObserveRun records a finished driver run
func (c *Collector) ObserveRun(scraper types.ScraperName) {
	c.runs.WithLabelValues(scraper.String()).Inc()
}

// PublishedCount returns the number of offers published by the scraper
// since the collector was created
func (c *Collector) PublishedCount(scraper types.ScraperName) float64 {
	return counterValue(c.offersPublished.WithLabelValues(scraper.String()))
}

// counterValue reads the current value of the counter
func counterValue(counter prometheus.Counter) float64 {
	var m dto.Metric

	if err := counter.Write(&m); err != nil {
		return 0
	}

	return m.GetCounter().GetValue()
}
