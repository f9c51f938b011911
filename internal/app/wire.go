package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"statebox/internal/crypto"
	"statebox/internal/lifecycle"
	"statebox/internal/logging"
	"statebox/internal/metrics"
	"statebox/internal/services/session"
	"statebox/internal/services/window"
	"statebox/internal/store"
)

// Wire bundles the store, services and lifecycle plumbing for the CLI.
type Wire struct {
	Log      *logging.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Box      *crypto.Box
	Store    *store.Store
	Sessions *session.Service
	Window   *window.Service

	Bus      *lifecycle.Bus
	Autosave *Autosaver
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *Config) (*Wire, error) {
	log, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	box, err := LoadBox(cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	st, err := store.Open(cfg.Dir, box,
		store.WithLogger(log.Named("store")),
		store.WithMetrics(m),
		store.WithWorkers(cfg.Workers),
	)
	if err != nil {
		box.Destroy()
		log.Sync()
		return nil, err
	}
	log.Debug("store opened",
		zap.String("dir", st.Dir()),
		zap.Bool("degraded", st.Degraded()),
		zap.String("key", box.Fingerprint()),
	)

	bus := lifecycle.NewBus(lifecycle.WithLogger(log.Named("lifecycle")), lifecycle.WithMetrics(m))

	return &Wire{
		Log:      log,
		Registry: reg,
		Metrics:  m,
		Box:      box,
		Store:    st,
		Sessions: session.New(st, session.WithLogger(log.Named("sessions")), session.WithMetrics(m)),
		Window:   window.New(st, log.Named("window")),
		Bus:      bus,
		Autosave: NewAutosaver(bus, st, log.Named("autosave")),
	}, nil
}

// Close drains the store, wipes the key and flushes the log.
func (w *Wire) Close() error {
	w.Autosave.Stop()
	err := w.Store.Close()
	w.Box.Destroy()
	w.Log.Sync()
	return err
}
