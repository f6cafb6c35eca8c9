package metrics

import "github.com/kilianp07/bessopt/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// TextfilePath, when set, receives the Prometheus registry in text
	// exposition format after each command.
	TextfilePath string `json:"textfile_path"`
}
