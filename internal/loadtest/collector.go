package loadtest

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/bool64/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/vearutop/dynhist-go"
)

// Summary aggregates outcomes of requests with the same name.
type Summary struct {
	Name          string
	Requests      int
	Failures      int
	Statuses      map[string]int
	BytesSent     float64
	BytesReceived float64
	P50, P90, P99 float64
}

// LatencySamplesLimit is a number of most recent latencies kept per name for percentiles.
const LatencySamplesLimit = 100000

type requestStats struct {
	summary Summary
	latency *dynhist.Collector
	samples int
	recent  []float64
}

func (rs *requestStats) addLatency(v float64) {
	rs.latency.Add(v)

	if len(rs.recent) < LatencySamplesLimit {
		rs.recent = append(rs.recent, v)
	} else {
		rs.recent[rs.samples%LatencySamplesLimit] = v
	}

	rs.samples++
}

// percentiles returns nearest-rank percentiles of recent latencies.
func (rs *requestStats) percentiles(percents ...float64) []float64 {
	sorted := make([]float64, len(rs.recent))
	copy(sorted, rs.recent)
	sort.Float64s(sorted)

	res := make([]float64, len(percents))

	for i, p := range percents {
		rank := int(math.Ceil(p / 100 * float64(len(sorted))))
		if rank < 1 {
			rank = 1
		}

		if rank > len(sorted) {
			rank = len(sorted)
		}

		res[i] = sorted[rank-1]
	}

	return res
}

// Collector is a stats.Tracker that aggregates request statistics by name.
type Collector struct {
	mu     sync.Mutex
	byName map[string]*requestStats
	gauges map[string]float64
}

var _ stats.Tracker = &Collector{}

// NewCollector creates statistics collector.
func NewCollector() *Collector {
	return &Collector{
		byName: map[string]*requestStats{},
		gauges: map[string]float64{},
	}
}

func labelValue(labelsAndValues []string, label string) string {
	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		if labelsAndValues[i] == label {
			return labelsAndValues[i+1]
		}
	}

	return ""
}

func (c *Collector) get(name string) *requestStats {
	rs, ok := c.byName[name]
	if !ok {
		rs = &requestStats{
			summary: Summary{Name: name, Statuses: map[string]int{}},
			latency: &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		}
		c.byName[name] = rs
	}

	return rs
}

// Add collects request metrics, other metrics are ignored.
func (c *Collector) Add(_ context.Context, name string, increment float64, labelsAndValues ...string) {
	reqName := labelValue(labelsAndValues, "name")
	if reqName == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case MetricRequests:
		rs := c.get(reqName)
		rs.summary.Requests += int(increment)
		rs.summary.Statuses[labelValue(labelsAndValues, "status")] += int(increment)
	case MetricFailures:
		c.get(reqName).summary.Failures += int(increment)
	case MetricLatency:
		c.get(reqName).addLatency(increment)
	case MetricBytesSent:
		c.get(reqName).summary.BytesSent += increment
	case MetricBytesReceived:
		c.get(reqName).summary.BytesReceived += increment
	}
}

// Set stores last gauge value.
func (c *Collector) Set(_ context.Context, name string, absolute float64, _ ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gauges[name] = absolute
}

// Summaries returns aggregated statistics sorted by name.
func (c *Collector) Summaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]Summary, 0, len(c.byName))

	for _, rs := range c.byName {
		s := rs.summary
		s.Statuses = make(map[string]int, len(rs.summary.Statuses))

		for k, v := range rs.summary.Statuses {
			s.Statuses[k] = v
		}

		if rs.samples > 0 {
			p := rs.percentiles(50, 90, 99)
			s.P50, s.P90, s.P99 = p[0], p[1], p[2]
		}

		res = append(res, s)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})

	return res
}

// Report prints summary table.
func (c *Collector) Report(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "# reqs", "# fails", "50%, ms", "90%, ms", "99%, ms", "Sent, B", "Rcvd, B", "Statuses"})

	for _, s := range c.Summaries() {
		table.Append([]string{
			s.Name,
			strconv.Itoa(s.Requests),
			strconv.Itoa(s.Failures),
			fmt.Sprintf("%.2f", s.P50),
			fmt.Sprintf("%.2f", s.P90),
			fmt.Sprintf("%.2f", s.P99),
			fmt.Sprintf("%.0f", s.BytesSent),
			fmt.Sprintf("%.0f", s.BytesReceived),
			formatStatuses(s.Statuses),
		})
	}

	table.Render()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rs := range c.byName {
		if rs.samples == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "\n%s latency distribution, ms:\n%s", rs.summary.Name, rs.latency.String())
	}
}

func formatStatuses(statuses map[string]int) string {
	keys := make([]string, 0, len(statuses))
	for k := range statuses {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	res := ""

	for i, k := range keys {
		if i > 0 {
			res += " "
		}

		if k == "0" {
			res += "error:" + strconv.Itoa(statuses[k])

			continue
		}

		res += k + ":" + strconv.Itoa(statuses[k])
	}

	return res
}

// Trackers fans out metrics to multiple trackers.
type Trackers []stats.Tracker

// Add implements stats.Tracker.
func (t Trackers) Add(ctx context.Context, name string, increment float64, labelsAndValues ...string) {
	for _, tr := range t {
		tr.Add(ctx, name, increment, labelsAndValues...)
	}
}

// Set implements stats.Tracker.
func (t Trackers) Set(ctx context.Context, name string, absolute float64, labelsAndValues ...string) {
	for _, tr := range t {
		tr.Set(ctx, name, absolute, labelsAndValues...)
	}
}
