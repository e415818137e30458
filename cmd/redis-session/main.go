// Command redis-session resolves a named connection string, reports whether
// a session can connect to it and optionally round-trips a PING.
//
// Configuration comes from the environment (see connconfig.Config) and can be
// overridden with flags:
//
//	redis-session --name Cache --config ./redis.yaml --ping
//
// The exit status is 0 when the server is available, 1 when it is not and 2
// on a usage error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"

	"github.com/ggoodman/redis-session-go/connconfig"
	"github.com/ggoodman/redis-session-go/connstring"
	"github.com/ggoodman/redis-session-go/internal/logctx"
	"github.com/ggoodman/redis-session-go/session"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the command with args[0] as the program name and returns the
// process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(args)
	if err == nil {
		return 0
	}

	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := exit.Error(); msg != "" {
			fmt.Fprintf(stderr, "error: %s\n", msg)
		}
		return exit.ExitCode()
	}
	return 2
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "redis-session",
		Usage:     "check that a named Redis connection string is reachable",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     flags(),
		Action: func(c *cli.Context) error {
			return check(c, stdout, stderr)
		},
		// Exit codes are mapped by run; the default handler would os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "connection string name (default from REDIS_SESSION_NAME, else Redis)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file of connection strings (default from REDIS_SESSION_CONFIG_FILE)",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "environment variable prefix for connection strings",
		},
		&cli.BoolFlag{
			Name:  "ping",
			Usage: "send PING once connected",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "print session metrics in Prometheus text format on exit",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "log at trace level",
		},
	}
}

func check(c *cli.Context, stdout, stderr io.Writer) error {
	cfg, err := connconfig.FromEnv()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.IsSet("name") {
		cfg.Name = c.String("name")
	}
	if c.IsSet("config") {
		cfg.File = c.String("config")
	}
	if c.IsSet("prefix") {
		cfg.EnvPrefix = c.String("prefix")
	}

	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = session.LevelTrace
	}
	log := slog.New(logctx.Handler{Handler: slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	if c.Bool("metrics") {
		defer writeMetrics(stdout, reg, log)
	}

	src := cfg.Source(connconfig.WithFileLogger(log))
	if settings, err := connstring.FromSource(src, cfg.Name); err == nil {
		log.InfoContext(ctx, "resolved connection string",
			slog.String("name", cfg.Name),
			slog.String("settings", settings.String()),
		)
	}

	sess := session.New(
		session.WithName(cfg.Name),
		session.WithSource(src),
		session.WithLogger(log),
		session.WithMetrics(session.NewMetrics(reg)),
	)
	defer func() {
		_ = sess.Close()
	}()

	ok, err := sess.IsAvailable(ctx)
	if err != nil {
		log.ErrorContext(ctx, "session check failed", slog.String("err", err.Error()))
		return cli.Exit("", 1)
	}
	if !ok {
		log.InfoContext(ctx, "redis unavailable", slog.String("name", cfg.Name))
		return cli.Exit("", 1)
	}
	log.InfoContext(ctx, "redis available", slog.String("name", cfg.Name), slog.String("session", sess.ID()))

	if c.Bool("ping") {
		return ping(ctx, sess, log)
	}
	return nil
}

func ping(ctx context.Context, sess *session.Session, log *slog.Logger) error {
	conn, err := sess.GetConnection(ctx)
	if err != nil {
		log.ErrorContext(ctx, "get connection failed", slog.String("err", err.Error()))
		return cli.Exit("", 1)
	}
	start := time.Now()
	if err := conn.Client().Ping(ctx).Err(); err != nil {
		log.ErrorContext(ctx, "ping failed", slog.String("err", err.Error()))
		return cli.Exit("", 1)
	}
	log.InfoContext(ctx, "ping", slog.Duration("rtt", time.Since(start)))
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer, log *slog.Logger) {
	families, err := g.Gather()
	if err != nil {
		log.Error("gather metrics", slog.String("err", err.Error()))
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			log.Error("write metrics", slog.String("err", err.Error()))
			return
		}
	}
}
