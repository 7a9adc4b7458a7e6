package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/credential"
	"github.com/dmitrymomot/libraryclient/pkg/file"
	"github.com/dmitrymomot/libraryclient/pkg/library"
	"github.com/dmitrymomot/libraryclient/pkg/logger"
	"github.com/dmitrymomot/libraryclient/pkg/redis"
	"github.com/dmitrymomot/libraryclient/pkg/secrets"
	"github.com/dmitrymomot/libraryclient/pkg/session"
)

const serviceName = "library-cli"

// app wires the session, library client and report archive for one command.
type app struct {
	cfg     Config
	log     *slog.Logger
	session *session.Manager
	store   credential.Store
	lib     *library.Client
	archive file.Storage // nil when archiving is off
	out     *printer
	in      *bufio.Reader
	errw    io.Writer

	// changes carries session transitions to the watch command.
	changes chan session.Snapshot

	closers []func() error
}

func newApp(ctx context.Context, cfg Config, out *printer, stdin io.Reader, stderr io.Writer) (*app, error) {
	log := logger.New(
		logger.WithEnvironment(cfg.Environment, serviceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithOutput(stderr),
		logger.WithContextExtractors(apiclient.RequestIDExtractor()),
	)

	a := &app{
		cfg:     cfg,
		log:     log,
		out:     out,
		in:      bufio.NewReader(stdin),
		errw:    stderr,
		changes: make(chan session.Snapshot, 16),
	}

	api, err := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	if a.store, err = a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.session = session.New(ctx, api, a.store,
		session.WithLogger(log),
		session.WithObserver(a.observe),
	)
	a.lib = library.New(a.session.Client())

	if a.archive, err = openArchive(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (credential.Store, error) {
	var sealer credential.Sealer
	if a.cfg.CredentialKey != "" {
		key, err := secrets.ParseKey(a.cfg.CredentialKey)
		if err != nil {
			return nil, fmt.Errorf("LIBRARY_CREDENTIAL_KEY: %w", err)
		}
		s, err := secrets.NewSealer(key, "credential")
		if err != nil {
			return nil, err
		}
		sealer = s
	}

	switch a.cfg.CredentialStore {
	case StoreMemory:
		return credential.NewMemoryStore(), nil
	case StoreRedis:
		client, err := redis.Connect(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return newRedisStore(client, a.cfg, sealer), nil
	default:
		path := a.cfg.CredentialFile
		if path == "" {
			path = credential.DefaultFilePath()
		}
		opts := []credential.FileOption{credential.WithFileLogger(a.log)}
		if sealer != nil {
			opts = append(opts, credential.WithFileSealer(sealer))
		}
		return credential.NewFileStore(path, opts...), nil
	}
}

func newRedisStore(client goredis.UniversalClient, cfg Config, sealer credential.Sealer) *credential.RedisStore {
	opts := []credential.RedisOption{credential.WithRedisKey(cfg.Redis.KeyPrefix, cfg.CredentialName)}
	if sealer != nil {
		opts = append(opts, credential.WithRedisSealer(sealer))
	}
	return credential.NewRedisStore(client, opts...)
}

func openArchive(ctx context.Context, cfg Config) (file.Storage, error) {
	switch cfg.ReportStorage {
	case ArchiveLocal:
		return file.NewLocalStorage(cfg.ReportDir, "")
	case ArchiveS3:
		return file.NewS3Storage(ctx, cfg.S3, file.WithS3UploadTimeout(cfg.RequestTimeout))
	default:
		return nil, nil
	}
}

// observe forwards a transition without ever blocking the session.
func (a *app) observe(s session.Snapshot) {
	select {
	case a.changes <- s:
	default:
	}
}

// Close releases connections opened by newApp.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// prompt prints label to stderr and reads one line from stdin.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.errw, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
