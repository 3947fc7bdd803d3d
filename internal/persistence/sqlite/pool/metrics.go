package pool

import "github.com/prometheus/client_golang/prometheus"

// Collector exports Pool.Stats as Prometheus metrics.
type Collector struct {
	pool *Pool

	maxConns  *prometheus.Desc
	created   *prometheus.Desc
	idle      *prometheus.Desc
	inUse     *prometheus.Desc
	waits     *prometheus.Desc
	timeouts  *prometheus.Desc
	discarded *prometheus.Desc
}

// NewCollector returns a collector reading from p on every scrape.
func NewCollector(p *Pool, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("volunteerbot", "db_pool", name), help, nil, constLabels)
	}
	return &Collector{
		pool:      p,
		maxConns:  desc("max_connections", "Maximum number of connections the pool may hold."),
		created:   desc("connections", "Connections currently opened by the pool."),
		idle:      desc("idle_connections", "Connections waiting in the idle queue."),
		inUse:     desc("in_use_connections", "Connections checked out by callers."),
		waits:     desc("waits_total", "Acquire calls that had to wait for a connection."),
		timeouts:  desc("timeouts_total", "Acquire calls that timed out."),
		discarded: desc("discarded_total", "Connections closed because a rollback or commit failed."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxConns
	ch <- c.created
	ch <- c.idle
	ch <- c.inUse
	ch <- c.waits
	ch <- c.timeouts
	ch <- c.discarded
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConnections))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.GaugeValue, float64(s.Created))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(s.Discarded))
}
