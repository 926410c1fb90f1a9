// Package app assembles the engine shared by the server and worker binaries.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/toolsascode/wildebeest/internal/config"
	"github.com/toolsascode/wildebeest/internal/events"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/loader"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/plugins"
	"github.com/toolsascode/wildebeest/internal/registry"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "wildebeest"

// Engine is a configured executor with its loader and metrics registry
type Engine struct {
	Config   *config.Config
	Registry registry.Registry
	Loader   *loader.Loader
	Executor *executor.Executor
	Metrics  *prometheus.Registry
}

// NewEngine applies the logging configuration, registers the built-in
// plugins with reg and builds an executor that reports to the log and to
// prometheus.
func NewEngine(cfg *config.Config, reg registry.Registry) (*Engine, error) {
	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := events.NewMetrics(promReg, MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	l := loader.New(reg,
		loader.WithConnections(cfg.Instances),
		loader.WithBaseDir(cfg.ResourceDir),
	)
	exec := executor.NewExecutor(reg,
		executor.WithSink(events.Multi(events.NewLogSink(logger.L()), metrics)),
		executor.WithLoader(l),
	)
	if err := plugins.RegisterDefaults(reg, l, exec); err != nil {
		return nil, fmt.Errorf("failed to register plugins: %w", err)
	}

	logger.Infof("Registered %d plugin group(s); %d named instance(s): %v",
		len(reg.Groups()), len(cfg.Instances), cfg.InstanceNames())

	return &Engine{
		Config:   cfg,
		Registry: reg,
		Loader:   l,
		Executor: exec,
		Metrics:  promReg,
	}, nil
}
