package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/internal/console"
	"github.com/comalice/hsm/internal/logger"
	"github.com/comalice/hsm/internal/metrics"
	"github.com/comalice/hsm/internal/production"
	"github.com/comalice/hsm/realtime"
)

var runCtx struct {
	tick     time.Duration
	duration time.Duration
	simulate bool
	console  bool
}

var runCmd = &cobra.Command{
	Use:   "run [options]",
	Short: "run the controller on simulated hardware",
	Long: `
Runs the door control loop at a fixed tick against an in-memory pin bank.
Console commands (info, log, timer, dbc, inputs, help) are read from stdin
and changes are saved to the settings file. A metrics summary is printed on
exit.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if runCtx.duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runCtx.duration)
			defer cancel()
		}
		return runController(ctx, os.Stdin, cmd.OutOrStdout())
	},
}

func runController(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	log := logger.For(logger.ComponentControlLoop)

	store := openStore(logger.For(logger.ComponentSettings))
	settings, err := production.LoadOrDefault(store, logger.For(logger.ComponentSettings))
	if err != nil {
		log.Warnf("Settings not saved: %v", err)
	}

	pins := hal.NewSimPins()
	clock := hal.NewSystemClock()
	debouncer := hal.NewDebouncer(pins, clock, settings.Delays(), logger.For(logger.ComponentIO))
	driver := hal.NewDriver(pins, logger.For(logger.ComponentIO))
	cfg := settings.Config(door.DefaultConfig())
	blinker := hal.NewTickerBlinker(driver, cfg.BlinkInterval, logger.For(logger.ComponentBlinker))
	defer blinker.Stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	changes := make(chan production.PublishedChange, 64)
	publisher := production.NewChannelPublisher("door-control", changes)

	ctl, err := door.New(door.Deps{
		Inputs:  debouncer,
		Outputs: driver,
		Blinker: blinker,
		Clock:   clock,
	}, cfg,
		door.WithLogger(logger.For(logger.ComponentDoorControl)),
		door.WithMetrics(m),
		door.WithObserver(publisher.Observer()),
	)
	if err != nil {
		return err
	}
	ctl.Setup()

	rt := realtime.NewRuntime[door.Event](ctl, realtime.Config{TickRate: runCtx.tick},
		realtime.WithLogger(log),
		realtime.WithMetrics(m),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Run(gctx)
	})
	g.Go(func() error {
		transitions := logger.For(logger.ComponentDispatcher)
		for {
			select {
			case <-gctx.Done():
				return nil
			case ch := <-changes:
				transitions.Infof("%s: %s -> %s (%s)", ch.Machine, ch.Change.From, ch.Change.To, ch.Change.Event)
			}
		}
	})
	if runCtx.console {
		con := console.New(console.Deps{
			Controller: ctl,
			Inputs:     debouncer,
			Debounce:   debouncer,
			Store:      store,
			Settings:   settings,
			Version:    version,
			BuildDate:  buildDate,
		}, stdout, logger.For(logger.ComponentConsole))
		g.Go(func() error {
			return con.Serve(gctx, stdin)
		})
	}
	if runCtx.simulate {
		g.Go(func() error {
			return simulate(gctx, pins, walkthrough(), logger.For(logger.ComponentSimulator))
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	st := rt.Stats()
	fmt.Fprintf(stdout, "\nStopped in state %s after %d ticks (%d overruns, %d unhandled, %d transitions dropped)\n",
		ctl.State(), st.Ticks, st.Overruns, st.Unhandled, publisher.Dropped())
	return printMetrics(stdout, reg)
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	samples, err := metrics.Collect(g)
	if err != nil {
		return errors.Wrap(err, "collecting metrics")
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Labels", "Value"})
	for _, s := range samples {
		table.Append([]string{s.Name, formatLabels(s.Labels), fmt.Sprintf("%g", s.Value)})
	}
	table.Render()
	return nil
}

func formatLabels(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
