package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/scenario"
)

const (
	stressName = "stress"

	flagKeys        = "keys"
	flagRounds      = "rounds"
	flagSeed        = "seed"
	flagMetricsAddr = "metrics-addr"
	flagLinger      = "linger"

	metricsPath       = "/metrics"
	meterName         = "redblack"
	readHeaderTimeout = 5 * time.Second
)

func newStressCommand(sess *session) *cobra.Command {
	var (
		keys, rounds int
		seed         int64
		linger       time.Duration
	)

	cmd := &cobra.Command{
		Use:   stressName,
		Short: "Run the randomized differential stress test",
		Long: `Insert --keys distinct keys in a random order and delete them in another,
for --rounds rounds, checking the tree against a sorted-slice oracle and every
red-black invariant after each operation.

With --metrics-addr the operation metrics are served for Prometheus at /metrics
while the test runs, and for --linger afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			stressCfg := sess.cfg.Stress

			if flags.Changed(flagKeys) {
				stressCfg.Keys = keys
			}

			if flags.Changed(flagRounds) {
				stressCfg.Rounds = rounds
			}

			if flags.Changed(flagSeed) {
				stressCfg.Seed = seed
			}

			return runStress(cmd, sess, stressCfg.Keys, stressCfg.Rounds, stressCfg.Seed, linger)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&keys, flagKeys, 0, "distinct keys per round (default from config)")
	flags.IntVar(&rounds, flagRounds, 0, "insert-all/delete-all rounds (default from config)")
	flags.Int64Var(&seed, flagSeed, 0, "random seed (default from config)")
	flags.String(flagMetricsAddr, "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.DurationVar(&linger, flagLinger, 0, "keep serving metrics this long after the run")

	return cmd
}

func runStress(cmd *cobra.Command, sess *session, keys, rounds int, seed int64, linger time.Duration) error {
	ctx := cmd.Context()
	meter := sess.providers.Meter

	if addr := sess.cfg.Stress.MetricsAddr; addr != "" {
		srv, err := startMetricsServer(addr, sess.providers.Tracer)
		if err != nil {
			return err
		}

		defer func() {
			shutdownErr := srv.shutdown(context.WithoutCancel(ctx))
			if shutdownErr != nil {
				sess.logger.WarnContext(ctx, "metrics server shutdown failed", "error", shutdownErr)
			}
		}()

		sess.logger.InfoContext(ctx, "serving metrics", "http.address", srv.addr, "http.path", metricsPath)
		meter = srv.meter
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return err
	}

	shape, err := observability.NewTreeMetrics(meter)
	if err != nil {
		return err
	}

	result, err := scenario.Stress(ctx, scenario.StressConfig{
		Keys:     keys,
		Rounds:   rounds,
		Seed:     seed,
		Recorder: red,
		Progress: func(round int, partial scenario.StressResult) {
			shape.RecordRound(ctx, observability.TreeShape{
				Nodes:       keys,
				Height:      partial.MaxHeight,
				BlackHeight: partial.MaxBlackHeight,
			})
			sess.logger.DebugContext(ctx, "round complete",
				"stress.round", round, "stress.operations", partial.Operations)
		},
	})
	if err != nil {
		return fmt.Errorf("stress: %w", err)
	}

	sess.logger.InfoContext(ctx, "stress passed", "stress.rounds", result.Rounds, "stress.elapsed", result.Elapsed)

	summary := render.Summary("Stress",
		render.CountRow("Keys", keys),
		render.CountRow("Rounds", result.Rounds),
		render.CountRow("Operations", result.Operations),
		render.Row{Name: "Seed", Value: strconv.FormatInt(seed, 10)},
		render.Row{Name: "Max height", Value: strconv.Itoa(result.MaxHeight)},
		render.Row{Name: "Max black height", Value: strconv.Itoa(result.MaxBlackHeight)},
		render.Row{Name: "Height bound", Value: fmt.Sprintf("%.2f", render.HeightBound(keys))},
		render.Row{Name: "Elapsed", Value: result.Elapsed.Round(time.Microsecond).String()},
	)

	_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if linger > 0 && sess.cfg.Stress.MetricsAddr != "" {
		select {
		case <-ctx.Done():
		case <-time.After(linger):
		}
	}

	return nil
}

// metricsServer serves a private Prometheus registry fed by its own
// MeterProvider.
type metricsServer struct {
	addr     string
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	server   *http.Server
	done     chan error
}

func startMetricsServer(addr string, tracer trace.Tracer) (*metricsServer, error) {
	handler, provider, err := observability.PrometheusHandler()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("listen %s: %w", addr, err), provider.Shutdown(context.Background()))
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, observability.ScrapeMiddleware(tracer, handler))

	srv := &metricsServer{
		addr:     listener.Addr().String(),
		meter:    provider.Meter(meterName),
		provider: provider,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
		done:     make(chan error, 1),
	}

	go func() {
		srv.done <- srv.server.Serve(listener)
	}()

	return srv, nil
}

func (srv *metricsServer) shutdown(ctx context.Context) error {
	errs := []error{srv.server.Shutdown(ctx)}

	serveErr := <-srv.done
	if !errors.Is(serveErr, http.ErrServerClosed) {
		errs = append(errs, serveErr)
	}

	errs = append(errs, srv.provider.Shutdown(ctx))

	return errors.Join(errs...)
}
