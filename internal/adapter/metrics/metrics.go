package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "envcheck"

// NewRegistry creates an empty Prometheus registry. Runtime collectors are
// left out: envcheck is a short-lived CI process.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// WriteTextfile writes everything gathered from g to path in the text
// exposition format read by node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
