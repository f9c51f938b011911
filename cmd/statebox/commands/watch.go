package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"statebox/internal/domain"
	"statebox/internal/lifecycle"
)

// watchStatusKey holds the last state recorded by watch.
const watchStatusKey domain.Key = "watch_status"

type watchStatus struct {
	PID     int       `json:"pid"`
	Started time.Time `json:"started"`
	State   string    `json:"state"`
	Updated time.Time `json:"updated"`
}

func watchCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Relay OS signals to the lifecycle bus and autosave until terminated",
		Long: `watch maps SIGTSTP to willResignActive, SIGCONT to didBecomeActive and
SIGINT/SIGTERM/SIGHUP to willTerminate. State is flushed on every resign and
on termination, after which the store is closed and watch exits.

Ctrl-Z still suspends watch: the process stops once the willResignActive
autosave has run, and "fg" resumes it with didBecomeActive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			started := time.Now().UTC()
			w.Autosave.Register("watch status", func(ctx context.Context) error {
				return w.Store.Save(ctx, watchStatusKey, watchStatus{
					PID:     os.Getpid(),
					Started: started,
					State:   w.Bus.State().String(),
					Updated: time.Now().UTC(),
				})
			})

			done := make(chan struct{})
			for _, e := range []domain.LifecycleEvent{domain.WillResignActive, domain.DidBecomeActive, domain.DidEnterBackground, domain.WillTerminate} {
				w.Bus.Subscribe(e, func(_ context.Context, ev domain.LifecycleEvent) error {
					fmt.Fprintf(out, "%s %s -> %s\n", time.Now().Format(time.TimeOnly), ev, w.Bus.State())
					if ev == domain.WillTerminate {
						close(done)
					}
					return nil
				})
			}

			var srv *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(w.Registry, promhttp.HandlerOpts{}))
				srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						w.Log.Error("metrics server failed", zap.Error(err))
					}
				}()
				fmt.Fprintf(out, "metrics on http://%s/metrics\n", metricsAddr)
			}

			stop := w.Bus.Listen(lifecycle.NewSignalSource())
			defer stop()
			fmt.Fprintf(out, "watching pid %d (state %s)\n", os.Getpid(), w.Bus.State())

			select {
			case <-done:
			case <-cmd.Context().Done():
				err = w.Bus.Publish(context.Background(), domain.WillTerminate)
			}

			if srv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	return cmd
}
