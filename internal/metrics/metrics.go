package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	filesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "files_processed_total",
			Help:      "Total source files processed by result (success or error kind)",
		},
		[]string{"result"},
	)

	splitLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfsplit",
			Name:      "split_duration_seconds",
			Help:      "Duration of single-file split operations",
			Buckets:   prometheus.DefBuckets,
		},
	)

	chunksWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "chunks_written_total",
			Help:      "Total chunk files written",
		},
	)

	pagesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "pages_written_total",
			Help:      "Total pages written across all chunks",
		},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "uploads_total",
			Help:      "Chunk uploads to object storage by result",
		},
		[]string{"result"},
	)

	batchFiles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfsplit",
			Name:      "batch_last_run_files",
			Help:      "Files in the last batch run, by state (total, failed)",
		},
		[]string{"state"},
	)
)

func init() {
	registry.MustRegister(filesProcessed, splitLatency, chunksWritten, pagesWritten, uploads, batchFiles)
}

// Registry returns the registry holding all pdfsplit collectors.
func Registry() *prometheus.Registry { return registry }

// WriteTextfile dumps the current values in the text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error { return prometheus.WriteToTextfile(path, registry) }

func ObserveSplit(result string, dur time.Duration) {
	filesProcessed.WithLabelValues(result).Inc()
	splitLatency.Observe(dur.Seconds())
}

func AddChunk(pages int) {
	chunksWritten.Inc()
	pagesWritten.Add(float64(pages))
}

func IncUpload(result string) { uploads.WithLabelValues(result).Inc() }

func SetBatch(total, failed int) {
	batchFiles.WithLabelValues("total").Set(float64(total))
	batchFiles.WithLabelValues("failed").Set(float64(failed))
}
