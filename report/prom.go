package report

import (
	"fmt"
	"io"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const metricPrefix = "dltrace_"

// WritePrometheus writes the headline figures of doc in the Prometheus text
// exposition format, suitable for a node_exporter textfile collector.
func WritePrometheus(w io.Writer, doc *Document) error {
	for _, mf := range MetricFamilies(doc) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// MetricFamilies converts doc into metric families, in a stable order.
func MetricFamilies(doc *Document) []*dto.MetricFamily {
	families := []*dto.MetricFamily{
		gaugeFamily("workers", "Workers seen in the trace.", gauge(float64(len(doc.Workers)))),
		gaugeFamily("tasks", "Completed tasks in the trace.", gauge(float64(doc.TaskCount))),
		gaugeFamily("bytes", "Bytes downloaded by completed tasks.", gauge(float64(doc.TotalBytes))),
		gaugeFamily("global_avg_speed_mbps", "Total bytes over total task time in MiB/s.", gauge(doc.GlobalAvgSpeedMBps)),
		gaugeFamily("global_avg_task_duration_seconds", "Mean task duration.", gauge(doc.GlobalAvgTaskDuration)),
	}
	if doc.TaskCount > 0 {
		families = append(families, durationSummary(doc))
	}

	if len(doc.Workers) > 0 {
		speed := make([]*dto.Metric, 0, len(doc.Workers))
		util := make([]*dto.Metric, 0, len(doc.Workers))
		idle := make([]*dto.Metric, 0, len(doc.Workers))
		tasks := make([]*dto.Metric, 0, len(doc.Workers))
		for _, r := range doc.Workers {
			id := strconv.Itoa(r.ID)
			speed = append(speed, gauge(r.AvgSpeedMBps, "worker", id))
			util = append(util, gauge(r.Utilization, "worker", id))
			idle = append(idle, gauge(r.IdleSeconds, "worker", id))
			tasks = append(tasks, gauge(float64(r.Tasks), "worker", id))
		}
		families = append(families,
			gaugeFamily("worker_avg_speed_mbps", "Average task speed per worker.", speed...),
			gaugeFamily("worker_utilization_percent", "Share of wall time spent downloading.", util...),
			gaugeFamily("worker_idle_seconds", "Wall time not spent downloading.", idle...),
			gaugeFamily("worker_tasks", "Completed tasks per worker.", tasks...),
		)
	}

	kills := map[string]int{}
	for _, im := range doc.Impacts {
		kills[string(im.Reason)]++
	}
	families = append(families,
		gaugeFamily("health_kills", "Health kills by reason.",
			gauge(float64(kills["stalled"]), "reason", "stalled"),
			gauge(float64(kills["slow"]), "reason", "slow")),
		gaugeFamily("balancer_splits", "Largest cumulative split count reported.",
			gauge(float64(doc.Findings.Balancer.TotalSplits))),
	)

	findings := make([]*dto.Metric, 0, len(doc.Recommendations))
	for _, r := range doc.Recommendations {
		findings = append(findings, gauge(1, "kind", string(r.Kind)))
	}
	if len(findings) > 0 {
		families = append(families, gaugeFamily("finding", "Analysis rules that fired.", findings...))
	}

	if len(doc.Buckets) > 0 {
		buckets := make([]*dto.Metric, 0, len(doc.Buckets))
		for _, b := range doc.Buckets {
			buckets = append(buckets, gauge(float64(b.Bytes), "bucket", strconv.Itoa(b.Index)))
		}
		families = append(families, gaugeFamily("bucket_bytes", "Bytes completed per throughput bucket.", buckets...))
	}
	return families
}

func durationSummary(doc *Document) *dto.MetricFamily {
	p := doc.DurationPercentiles
	q := []*dto.Quantile{
		{Quantile: float64Ptr(0.5), Value: float64Ptr(p.P50)},
		{Quantile: float64Ptr(0.9), Value: float64Ptr(p.P90)},
		{Quantile: float64Ptr(0.95), Value: float64Ptr(p.P95)},
		{Quantile: float64Ptr(0.99), Value: float64Ptr(p.P99)},
	}
	count := uint64(doc.TaskCount)
	sum := doc.GlobalAvgTaskDuration * float64(doc.TaskCount)
	return &dto.MetricFamily{
		Name: strPtr(metricPrefix + "task_duration_seconds"),
		Help: strPtr("Task duration quantiles."),
		Type: dto.MetricType_SUMMARY.Enum(),
		Metric: []*dto.Metric{{
			Summary: &dto.Summary{SampleCount: &count, SampleSum: &sum, Quantile: q},
		}},
	}
}

func gaugeFamily(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strPtr(metricPrefix + name),
		Help:   strPtr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// gauge builds a gauge sample; labels are name/value pairs.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: float64Ptr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: strPtr(labels[i]), Value: strPtr(labels[i+1])})
	}
	return m
}

func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }
