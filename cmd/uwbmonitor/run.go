package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"uwbmonitor/internal/config"
	"uwbmonitor/internal/hub"
	"uwbmonitor/internal/logger"
	"uwbmonitor/internal/monitor"
	"uwbmonitor/internal/serialport"
	"uwbmonitor/internal/web"
	"uwbmonitor/pkg/rawlog"
	"uwbmonitor/pkg/render"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loadConfig merges defaults, the config file, the environment and the flags
// the user actually set, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("baudrate") {
		cfg.BaudRate = baudRate
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = readTimeout
	}
	if flags.Changed("output") {
		cfg.Output = outputPath
	}
	if flags.Changed("output-format") {
		cfg.OutputFormat = outputFormat
	}
	if flags.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if flags.Changed("color") {
		cfg.Color = colorMode
	}

	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Port = args[0]
	}
	log := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Int("baudrate", cfg.BaudRate).Msg("Connecting")
	port, err := serialport.Open(serialport.Config{
		Device:      cfg.Port,
		BaudRate:    cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("serial error: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close serial port")
		}
	}()
	log.Info().Msg("Connected, waiting for device data")

	return runPipeline(ctx, cmd.OutOrStdout(), cfg, serialport.NewLineReader(ctx, port), log)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Replaying a capture into another capture is never useful.
	cfg.Output = ""
	log := newLogger(cmd, cfg)

	format, err := rawlog.ParseFormat(replayFormat)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reads from an interactive stdin block; keep Ctrl-C responsive.
	src := monitor.NewCancelableSource(ctx, rawlog.NewReader(in, format))
	return runPipeline(ctx, cmd.OutOrStdout(), cfg, src, log)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := serialport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

// runPipeline wires the optional raw log and web feed around a Monitor and
// runs it over src. Every resource it opens is released before it returns.
func runPipeline(ctx context.Context, out io.Writer, cfg config.Config, src monitor.Source, log zerolog.Logger) (err error) {
	opts := monitor.Options{
		Out:       out,
		Formatter: render.New(cfg.UseColor(isTerminal(out))),
		Logger:    log,
	}

	if cfg.Output != "" {
		format, ferr := rawlog.ParseFormat(cfg.OutputFormat)
		if ferr != nil {
			return ferr
		}
		f, ferr := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if ferr != nil {
			return fmt.Errorf("failed to open output file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()

		w := rawlog.NewWriter(f, format, log)
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		opts.Recorder = w
		log.Info().Str("file", cfg.Output).Str("format", string(format)).Msg("Logging raw lines")
	}

	if cfg.Listen != "" {
		ln, lerr := net.Listen("tcp", cfg.Listen)
		if lerr != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, lerr)
		}
		h := hub.New(log)
		opts.Publisher = h

		srvCtx, cancel := context.WithCancel(ctx)
		srvErr := make(chan error, 1)
		go func() { srvErr <- web.New(h, log).Serve(srvCtx, ln) }()
		defer func() {
			cancel()
			if serr := <-srvErr; serr != nil && err == nil {
				err = serr
			}
		}()
	}

	m := monitor.New(opts)
	err = m.Run(ctx, src)

	st := m.Stats()
	log.Info().
		Int("lines", st.Lines).
		Int("records", st.Records).
		Int("malformed", st.Malformed).
		Int("unknown", st.Unknown).
		Int("skipped", st.Skipped).
		Msg("Exiting")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
