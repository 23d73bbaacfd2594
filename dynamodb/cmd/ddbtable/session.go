package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/acksell/ddbtable/dynamodb/ddbrows"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/acksell/ddbtable/dynamodb/sink"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// globalFlags are shared by every command. Their defaults come from the
// config file.
type globalFlags struct {
	cfg     Config
	verbose bool
}

func addGlobalFlags(fs *flag.FlagSet, cfg Config) *globalFlags {
	g := &globalFlags{cfg: cfg}
	if g.cfg.Format == "" {
		g.cfg.Format = "csv"
	}
	fs.StringVar(&g.cfg.Region, "region", g.cfg.Region, "AWS region")
	fs.StringVar(&g.cfg.Profile, "profile", g.cfg.Profile, "shared config profile")
	fs.StringVar(&g.cfg.Endpoint, "endpoint", g.cfg.Endpoint, "DynamoDB endpoint override, e.g. DynamoDB Local")
	fs.IntVar(&g.cfg.Capacity, "capacity", g.cfg.Capacity, "rows buffered before each flush")
	fs.StringVar(&g.cfg.DataDir, "spill", g.cfg.DataDir, "spill tables to BadgerDB in this directory")
	fs.StringVar(&g.cfg.Format, "format", g.cfg.Format, "output format: csv, jsonl or schema")
	fs.BoolVar(&g.verbose, "v", false, "debug logging")
	return g
}

func newLogger(w *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(w.Fd()),
	}))
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// session is everything a read command needs.
type session struct {
	cfg    Config
	log    *slog.Logger
	reader *ddbrows.Reader
	store  *sink.BadgerStore
}

func openSession(ctx context.Context, g *globalFlags) (*session, error) {
	if _, err := formatterFor(g.cfg.Format); err != nil {
		return nil, err
	}
	log := newLogger(os.Stderr, g.verbose)
	slog.SetDefault(log)

	awsCfg, err := loadAWSConfig(ctx, g.cfg)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if g.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(g.cfg.Endpoint)
		}
	})

	s := &session{cfg: g.cfg, log: log}
	factory := sink.Memory()
	if g.cfg.DataDir != "" {
		if err := os.MkdirAll(g.cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create spill directory: %w", err)
		}
		store, err := sink.OpenBadger(sink.BadgerOptions{
			Path:   g.cfg.DataDir,
			Logger: badgerLogger{log.With("component", "badger")},
		})
		if err != nil {
			return nil, err
		}
		s.store = store
		factory = store.Factory()
		log.Debug("spilling to badger", "dir", g.cfg.DataDir)
	}

	opts := []ddbrows.Option{
		ddbrows.WithSink(factory),
		ddbrows.WithLogger(log),
	}
	if g.cfg.Capacity > 0 {
		opts = append(opts, ddbrows.WithCapacity(g.cfg.Capacity))
	}
	s.reader = ddbrows.New(client, opts...)
	return s, nil
}

// emit writes t to w and frees it.
func (s *session) emit(w io.Writer, t frame.Table) error {
	format, err := formatterFor(s.cfg.Format)
	if err != nil {
		return err
	}
	if rel, ok := t.(frame.Releaser); ok {
		defer rel.Release()
	}
	s.log.Debug("table ready", "rows", t.Len(), "columns", t.Schema().Len())
	return format(w, t)
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// badgerLogger routes BadgerDB logs to slog. Badger is chatty at info, so
// everything below warning goes to debug.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(badgerMessage(format, args))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(badgerMessage(format, args))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(badgerMessage(format, args))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(badgerMessage(format, args))
}

func badgerMessage(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
