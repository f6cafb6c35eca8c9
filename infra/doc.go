// Package infra holds the adapters behind the core contracts: the zerolog
// logger, the Prometheus and InfluxDB metrics sinks, the Paho setpoint
// publisher and the Sentry error reporter. Adapters import core packages,
// never the reverse.
package infra
