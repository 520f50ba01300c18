package cmd

import (
	"context"
	"fmt"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/config"
	"doubloon-tracker/core/database"
	"doubloon-tracker/core/logger"
	"doubloon-tracker/core/ranks"
	"doubloon-tracker/core/reconcile"
	"doubloon-tracker/core/sheets"
	"doubloon-tracker/core/storage"
	"doubloon-tracker/feature/discord"
	"doubloon-tracker/feature/leaderboard"
	"doubloon-tracker/feature/ledger"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// roleIndexTTL is how long the guild role listing is reused.
const roleIndexTTL = 10 * time.Minute

// runtime holds the components shared by every command.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	trail  *audit.Trail
	table  *ranks.Table
	store  *ledger.Store
}

// bootstrap loads configuration and opens the database and audit trail.
// Failure here is fatal for the calling command.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	table, err := cfg.Ledger.RankTable()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	store := ledger.NewStore(db, table)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	trail, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logg, db: db, trail: trail, table: table, store: store}, nil
}

// Close releases the database and audit files.
func (r *runtime) Close() {
	_ = r.trail.Close()
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = r.logger.Sync()
}

// engine builds the ledger engine. reconciler and notifier may be nil.
func (r *runtime) engine(reconciler ledger.RankReconciler, notifier ledger.Notifier) (*ledger.Engine, error) {
	emojis, err := r.cfg.Ledger.EmojiAmounts()
	if err != nil {
		return nil, err
	}
	var dedup *ledger.Deduplicator
	if ttl := r.cfg.Ledger.DedupTTL(); ttl > 0 {
		dedup = ledger.NewDeduplicator(r.cfg.Ledger.DedupSize, ttl)
	}
	return ledger.NewEngine(r.store, ledger.EngineOptions{
		Emojis:     emojis,
		Reconciler: reconciler,
		Notifier:   notifier,
		Dedup:      dedup,
	}, logger.ForComponent(r.logger, "ledger"), r.trail), nil
}

// reconciler builds the role reconciler over a Discord session.
func (r *runtime) reconciler(session discord.Session, notifier *discord.Notifier) (*reconcile.Reconciler, error) {
	guild := r.cfg.Discord.GuildID
	return reconcile.New(r.table,
		discord.NewMembership(session, guild),
		discord.NewDirectory(session, guild),
		notifier,
		reconcile.Options{TierRoles: r.cfg.Discord.TierRoleMap(), IndexTTL: roleIndexTTL},
		logger.ForComponent(r.logger, "reconcile"),
		r.trail,
	)
}

// session opens a REST-only Discord session, nil when no token is configured.
func (r *runtime) session() (*discordgo.Session, error) {
	if !r.cfg.Discord.Enabled() {
		return nil, nil
	}
	return discord.NewSession(r.cfg.Discord.Token)
}

// sheetsStore builds the configured leaderboard backend.
func (r *runtime) sheetsStore(ctx context.Context) (sheets.Store, error) {
	lb := r.cfg.Leaderboard
	switch lb.Backend {
	case leaderboard.BackendSheets:
		return sheets.NewGoogleStore(ctx, lb.SpreadsheetID, sheets.CredentialOptions(lb.CredentialsFile)...)
	case leaderboard.BackendBucket:
		client, err := storage.NewClient(r.cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx, client, r.cfg.Storage.Bucket, r.cfg.Storage.Region); err != nil {
			return nil, err
		}
		return sheets.NewBucketStore(client, r.cfg.Storage.Bucket, lb.BucketPrefix), nil
	}
	return nil, fmt.Errorf("leaderboard backend %q is disabled", lb.Backend)
}

// leaderboardService builds the sync service over the configured backend.
func (r *runtime) leaderboardService(ctx context.Context) (*leaderboard.Service, error) {
	store, err := r.sheetsStore(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.NewService(r.store, r.table, store, r.cfg.Leaderboard,
		logger.ForComponent(r.logger, "leaderboard"), r.trail), nil
}
