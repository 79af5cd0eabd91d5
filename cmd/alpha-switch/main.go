package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/alpha-switch/config"
	"github.com/RyanBlaney/alpha-switch/display"
	"github.com/RyanBlaney/alpha-switch/logging"
	"github.com/RyanBlaney/alpha-switch/realtime"
	"github.com/RyanBlaney/alpha-switch/stream"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// errEscape is the cancellation cause when the operator presses escape
var errEscape = errors.New("registered an 'escape' key")

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alpha-switch", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML configuration (defaults built in)")
	debug := fs.Bool("debug", false, "log every component at debug level")
	dump := fs.Bool("dump-config", false, "print the effective configuration and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dump {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	base, err := cfg.Logger()
	if err != nil {
		return err
	}
	if *debug {
		base.SetLevel(logging.DebugLevel)
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"session": uuid.NewString()})
	logger := base.WithContext(ctx)
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// Everything that can be misconfigured is built before the stream
	// opens and before any display appears.
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}
	estimator, err := cfg.Estimator()
	if err != nil {
		return err
	}
	aggregator, err := cfg.Aggregator(layout)
	if err != nil {
		return err
	}
	policy, err := cfg.SwitchPolicy()
	if err != nil {
		return err
	}
	colors, err := cfg.ColorMap()
	if err != nil {
		return err
	}
	outlet, err := cfg.Outlet()
	if err != nil {
		return err
	}

	registry := stream.NewRegistry(logger)
	registry.Register(outlet)

	inlet, err := registry.Open(cfg.Stream.Selector, cfg.Stream.BufferSeconds)
	if err != nil {
		return err
	}
	if err := stream.CheckCompatible(inlet.Info(), layout, cfg.Stream.SampleRate); err != nil {
		inlet.Close()
		return err
	}

	sink, err := openSink(ctx, cancel, cfg, logger)
	if err != nil {
		inlet.Close()
		return err
	}

	loop, err := realtime.New(cfg.LoopConfig(), realtime.Deps{
		Source:     inlet,
		Estimator:  estimator,
		Aggregator: aggregator,
		Policy:     policy,
		Sink:       sink,
		Colors:     colors,
		Logger:     logger,
	})
	if err != nil {
		inlet.Close()
		sink.Close()
		return err
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	logger.Info("inlet summary", inletFields(inlet.Stats()))
	if errors.Is(context.Cause(ctx), errEscape) {
		logger.Info("stopped from the display")
	}
	return nil
}

func openSink(ctx context.Context, cancel context.CancelCauseFunc, cfg *config.Config, logger logging.Logger) (display.Sink, error) {
	kind, err := display.ParseKind(cfg.Display.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case display.KindWebSocket:
		ws, err := display.NewWebSocketSink(cfg.Display.Listen, logger)
		if err != nil {
			return nil, err
		}
		go func() {
			select {
			case <-ws.Done():
				cancel(errEscape)
			case <-ctx.Done():
			}
		}()
		return ws, nil

	case display.KindTerminal:
		clear := isatty.IsTerminal(os.Stdout.Fd())
		return display.NewTerminalSink(os.Stdout, cfg.Display.Width, cfg.Display.Height, clear), nil

	default:
		return display.NopSink{}, nil
	}
}

func inletFields(s stream.InletStats) logging.Fields {
	return logging.Fields{
		"pushed":      s.Pushed,
		"pulled":      s.Pulled,
		"flushed":     s.Flushed,
		"overwritten": s.Overwritten,
		"buffered":    s.Buffered,
	}
}
