// Package metrics turns one inspection into gauges for the node_exporter
// textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/report"
)

// Registry holds the gauges of one inspection.
type Registry struct {
	reg *prometheus.Registry

	Enabled       prometheus.Gauge
	LoggingLevel  prometheus.Gauge
	Rules         *prometheus.GaugeVec
	ParseErrors   prometheus.Gauge
	DefaultPolicy *prometheus.GaugeVec
}

func newRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	factory := promauto.With(r.reg)

	r.Enabled = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ufw_enabled",
		Help: "1 when ufw reports Status: active",
	})
	r.LoggingLevel = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ufw_logging_level",
		Help: "Logging level, 0 (off) to 4 (full)",
	})
	r.Rules = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ufw_rules",
		Help: "Numbered rules by action and direction",
	}, []string{"action", "direction"})
	r.ParseErrors = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ufw_rule_parse_errors",
		Help: "Numbered rule lines that could not be decoded",
	})
	r.DefaultPolicy = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ufw_default_policy",
		Help: "1 for the default policy in force per direction",
	}, []string{"direction", "policy"})
	return r
}

// Collect fills a fresh registry. Parts of status that failed to decode are
// left at zero.
func Collect(status report.Verbose, rules []model.Result[model.RuleEntry]) *Registry {
	r := newRegistry()

	if status.Enabled.OK() && status.Enabled.Value {
		r.Enabled.Set(1)
	}
	if status.Logging.OK() {
		r.LoggingLevel.Set(float64(status.Logging.Value))
	}
	if status.Defaults.OK() {
		for _, d := range model.Values(status.Defaults.Value) {
			r.DefaultPolicy.WithLabelValues(d.Direction.String(), d.Policy.String()).Set(1)
		}
	}

	for _, res := range rules {
		if res.Err != nil {
			r.ParseErrors.Inc()
			continue
		}
		r.Rules.WithLabelValues(res.Value.Action.Type.String(), res.Value.Action.Direction.String()).Inc()
	}
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes r atomically to path in the text exposition format.
func WriteTextfile(path string, r *Registry) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}
