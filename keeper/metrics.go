package keeper

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stakeward/steward-core/metrics"
)

// taskGauges holds the per-task Prometheus series the MetricsEmit task
// publishes (spec §4.3's "per-epoch accounting", exported the way the
// examples' own exporter wires a handful of named gauges rather than a
// generic metric registry abstraction).
type taskGauges struct {
	runs   *prometheus.GaugeVec
	errs   *prometheus.GaugeVec
	txs    *prometheus.GaugeVec
	tick   prometheus.Gauge
	validators prometheus.Gauge
}

func newTaskGauges(exporter *metrics.PrometheusExporter) *taskGauges {
	return &taskGauges{
		runs: exporter.NewGaugeVec(prometheus.GaugeOpts{
			Name: "steward_keeper_runs_for_epoch",
			Help: "Number of times a keeper task has run this epoch.",
		}, []string{"task"}),
		errs: exporter.NewGaugeVec(prometheus.GaugeOpts{
			Name: "steward_keeper_errors_for_epoch",
			Help: "Number of errors a keeper task has hit this epoch.",
		}, []string{"task"}),
		txs: exporter.NewGaugeVec(prometheus.GaugeOpts{
			Name: "steward_keeper_txs_for_epoch",
			Help: "Number of transactions a keeper task has submitted this epoch.",
		}, []string{"task"}),
		tick: exporter.NewGauge(prometheus.GaugeOpts{
			Name: "steward_keeper_tick",
			Help: "The keeper's current tick counter.",
		}),
		validators: exporter.NewGauge(prometheus.GaugeOpts{
			Name: "steward_keeper_tracked_validators",
			Help: "Number of validators with a validator-history entry.",
		}),
	}
}

func (k *Keeper) emitOne(name TaskName, s OperationStats) {
	label := name.String()
	k.gauges.runs.WithLabelValues(label).Set(float64(s.RunsForEpoch))
	k.gauges.errs.WithLabelValues(label).Set(float64(s.ErrorsForEpoch))
	k.gauges.txs.WithLabelValues(label).Set(float64(s.TxsForEpoch))
	k.gauges.tick.Set(float64(k.tick))
	k.gauges.validators.Set(float64(k.registry.Len()))
}
