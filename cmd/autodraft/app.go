package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"autodraft.app/assistant/common/id"
	"autodraft.app/assistant/common/llm"
	"autodraft.app/assistant/common/logger"
	"autodraft.app/assistant/common/otel"
	"autodraft.app/assistant/core/config"
	"autodraft.app/assistant/core/db"
	"autodraft.app/assistant/internal/auth"
	"autodraft.app/assistant/internal/draft"
	"autodraft.app/assistant/internal/drive"
	"autodraft.app/assistant/internal/extract"
	"autodraft.app/assistant/internal/gate"
	"autodraft.app/assistant/internal/identity"
	"autodraft.app/assistant/internal/mail"
	"autodraft.app/assistant/internal/notify"
	"autodraft.app/assistant/internal/resource"
	"autodraft.app/assistant/internal/runlock"
	"autodraft.app/assistant/internal/runlog"
	"autodraft.app/assistant/internal/sheets"
)

// app holds everything a check needs plus the optional backends that have to
// be closed on exit.
type app struct {
	cfg       config.Config
	gate      *gate.Gate
	runlog    *runlog.Store // nil without DATABASE_URL
	lock      *runlock.Lock // nil without REDIS_URL
	telemetry *otel.Telemetry
	database  *db.DB
	redis     *redis.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing otel: %w", err)
	}
	logger.Setup(cfg)
	a := &app{cfg: cfg, telemetry: telemetry}

	host, _ := os.Hostname()
	if err := id.Init(id.NodeID(host)); err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	googleOpt, err := googleClientOption(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}

	oracle, err := llm.New(llm.Config{
		Provider:  cfg.Oracle.Provider,
		APIKey:    cfg.Oracle.APIKey,
		BaseURL:   cfg.Oracle.BaseURL,
		Model:     cfg.Oracle.Model,
		MaxTokens: cfg.Oracle.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating oracle client: %w", err)
	}
	extractor, err := extract.New(oracle, cfg.Matching.HostName)
	if err != nil {
		return nil, err
	}

	rules, err := gate.LoadSubjectRules(cfg.Matching.SubjectRulesPath)
	if err != nil {
		return nil, err
	}
	matcher, err := gate.NewMatcher(rules)
	if err != nil {
		return nil, err
	}

	mailbox, err := mail.NewGmailStore(ctx, slog.Default(), googleOpt)
	if err != nil {
		return nil, err
	}
	files, err := drive.NewGoogleDrive(ctx, slog.Default(), googleOpt)
	if err != nil {
		return nil, err
	}

	people := identity.NewResolver(mailbox, identity.Config{
		HostName:        cfg.Matching.HostName,
		SystemTokens:    cfg.Matching.SystemTokens,
		InternalSenders: cfg.Matching.InternalSenders,
	})
	resourceCfg := resource.Config{
		BasePath:       cfg.Drive.BasePath,
		BaseFolderID:   cfg.Drive.BaseFolderID,
		EditFolderName: cfg.Drive.EditFolderName,
		OutlineDocName: cfg.Drive.OutlineDocName,
	}

	assembler, err := draft.NewAssembler(mailbox, draft.Config{
		ReferencesLink:     cfg.Draft.ReferencesLink,
		TechGuidelinesLink: cfg.Draft.TechGuidelinesLink,
		ReplySubject:       cfg.Draft.ReplySubject,
		NewSubject:         cfg.Draft.NewSubject,
		Signature:          firstName(cfg.Matching.HostName),
	})
	if err != nil {
		return nil, err
	}

	deps := gate.Deps{
		Mail:      mailbox,
		Matcher:   matcher,
		Extractor: extractor,
		Contacts:  people,
		Resources: func() gate.ResourceFinder {
			return resource.NewResolver(files, people, resourceCfg)
		},
		Assembler: assembler,
		Notifier:  notify.NewSlack(cfg.Slack.WebhookURL, cfg.Slack.Timeout, slog.Default()),
	}

	// Optional collaborators are only assigned when enabled so the gate
	// never sees a typed nil.
	if cfg.Sheets.Enabled() {
		tracking, err := sheets.NewClient(ctx, slog.Default(), cfg.Sheets.SpreadsheetID, cfg.Sheets.GID, googleOpt)
		if err != nil {
			return nil, err
		}
		deps.Timeline = tracking
	}

	if cfg.DB.Enabled() {
		a.database, err = db.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.runlog = runlog.New(a.database)
		if err := a.runlog.EnsureSchema(ctx); err != nil {
			a.close(ctx)
			return nil, err
		}
		deps.Recorder = a.runlog
		slog.InfoContext(ctx, "run log enabled")
	}

	if cfg.RunLock.Enabled() {
		opts, err := redis.ParseURL(cfg.RunLock.RedisURL)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.lock = runlock.New(a.redis, cfg.RunLock.Key, cfg.RunLock.TTL)
		slog.InfoContext(ctx, "run lock enabled", "key", cfg.RunLock.Key)
	}

	a.gate = gate.New(deps, gate.Config{
		NotesSender:       cfg.Matching.NotesSender,
		ProductionSubject: cfg.Matching.ProductionSubject,
		ProcessedLabel:    cfg.Matching.ProcessedLabel,
		PageSize:          cfg.PageSize,
	})
	return a, nil
}

// googleClientOption loads the stored token and checks it once so a missing
// or revoked credential fails before any mail is read.
func googleClientOption(ctx context.Context, cfg config.GoogleConfig) (option.ClientOption, error) {
	oauthCfg, err := auth.LoadConfig(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	ts, err := auth.TokenSource(ctx, oauthCfg, cfg.TokenPath)
	if err != nil {
		return nil, withSetupHint(err)
	}
	if _, err := ts.Token(); err != nil {
		return nil, withSetupHint(err)
	}
	return auth.ClientOption(ts), nil
}

func withSetupHint(err error) error {
	if errors.Is(err, auth.ErrNoCredentials) {
		return fmt.Errorf("%w (run `autodraft setup-auth` first)", err)
	}
	return err
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "otel shutdown:", err)
	}
}

func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}
