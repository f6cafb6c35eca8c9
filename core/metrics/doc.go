// Package metrics defines the recorder contracts used to observe optimization
// runs. Sinks like the Prometheus and InfluxDB sinks in infra/metrics record
// dispatch runs, sizing searches and arbitrage decisions, and can be combined
// with NewMultiSink. NewMetricsSink returns a MultiSink automatically when
// several sinks are configured.
package metrics
