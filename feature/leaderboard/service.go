package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/ranks"
	"doubloon-tracker/core/sheets"
	"doubloon-tracker/feature/ledger"
	"doubloon-tracker/feature/ledger/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserSource is the read side of the balance store.
type UserSource interface {
	ListAll(ctx context.Context) ([]models.User, error)
	LastModified(ctx context.Context) (time.Time, error)
}

// Notifier reaches the operator channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Result describes one sync run.
type Result struct {
	RunID   string `json:"run_id"`
	Skipped bool   `json:"skipped"`
	Rows    int    `json:"rows"`

	LocalModified  time.Time `json:"local_modified"`
	RemoteModified time.Time `json:"remote_modified"`
}

// Status is the state of the last successful export.
type Status struct {
	Exported     bool      `json:"exported"`
	LastExported time.Time `json:"last_exported"`
	Link         string    `json:"link"`
}

// Service mirrors the balance store to an external tabular store.
type Service struct {
	users     UserSource
	table     *ranks.Table
	store     sheets.Store
	sheet     string
	rankSheet string
	grace     time.Duration
	link      string

	logger   *zap.Logger
	trail    *audit.Trail
	notifier Notifier

	// mu serializes Sync; the fields below are only touched while holding it.
	mu           sync.Mutex
	exported     bool
	lastExported time.Time
}

// NewService creates a leaderboard service.
func NewService(users UserSource, table *ranks.Table, store sheets.Store, cfg Config, logger *zap.Logger, trail *audit.Trail) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     users,
		table:     table,
		store:     store,
		sheet:     cfg.Sheet,
		rankSheet: cfg.RankSheet,
		grace:     cfg.Grace(),
		link:      cfg.Link,
		logger:    logger,
		trail:     trail,
	}
}

// WithNotifier makes failed exports notify the operator.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// Link returns the public leaderboard URL.
func (s *Service) Link() string {
	return s.link
}

// Status returns the state of the last export.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Exported: s.exported, LastExported: s.lastExported, Link: s.link}
}

// Sync exports every balance unless the external store is already current.
// Concurrent callers wait for the running sync and then run their own check.
func (s *Service) Sync(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &Result{RunID: uuid.NewString()}
	l := s.logger.With(zap.String("run_id", res.RunID))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := s.users.LastModified(gctx)
		res.LocalModified = ts
		return err
	})
	g.Go(func() error {
		ts, err := s.store.LastModified(gctx, s.sheet)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExternalSync, err)
		}
		res.RemoteModified = ts
		return nil
	})
	if err := g.Wait(); err != nil {
		l.Error("Leaderboard freshness check failed", zap.Error(err))
		s.trail.Error("Leaderboard freshness check failed: %v", err)
		s.notify(ctx, err)
		return nil, err
	}

	if s.current(res.LocalModified, res.RemoteModified) {
		res.Skipped = true
		l.Debug("Leaderboard already current",
			zap.Time("local", res.LocalModified),
			zap.Time("remote", res.RemoteModified))
		s.trail.Command("Bailing out of leaderboard update - no changes since %s",
			res.LocalModified.Format(time.RFC3339))
		return res, nil
	}

	return s.export(ctx, res, l)
}

// Export writes the leaderboard without the freshness check.
func (s *Service) Export(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &Result{RunID: uuid.NewString()}
	local, err := s.users.LastModified(ctx)
	if err != nil {
		return nil, err
	}
	res.LocalModified = local
	return s.export(ctx, res, s.logger.With(zap.String("run_id", res.RunID)))
}

// export must be called with mu held.
func (s *Service) export(ctx context.Context, res *Result, l *zap.Logger) (*Result, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	ledger.SortByBalance(users)

	if err := s.write(ctx, users); err != nil {
		l.Error("Leaderboard export failed", zap.Error(err))
		s.trail.Error("Leaderboard export failed: %v", err)
		s.notify(ctx, err)
		return nil, fmt.Errorf("%w: %w", ErrExternalSync, err)
	}

	s.exported = true
	s.lastExported = res.LocalModified
	res.Rows = len(users)
	l.Info("Leaderboard exported", zap.Int("rows", res.Rows))
	s.trail.Command("Leaderboard updated")
	return res, nil
}

func (s *Service) notify(ctx context.Context, cause error) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, fmt.Sprintf("Leaderboard update failed: %v", cause)); err != nil {
		s.logger.Warn("Operator notification failed", zap.Error(err))
	}
}

// current reports whether an export would be redundant: the sheet was written
// more than the grace buffer after the last local change, or nothing changed
// locally since this process last exported.
func (s *Service) current(local, remote time.Time) bool {
	if !remote.IsZero() && remote.Add(-s.grace).After(local) {
		return true
	}
	return s.exported && !local.After(s.lastExported)
}

func (s *Service) write(ctx context.Context, users []models.User) error {
	if err := s.store.ClearRegion(ctx, s.sheet, sheets.Columns(2)); err != nil {
		return err
	}
	if len(users) > 0 {
		if err := s.store.WriteRegion(ctx, s.sheet, sheets.Region(2, len(users)), BalanceRows(users)); err != nil {
			return err
		}
	}

	if s.rankSheet == "" {
		return nil
	}
	grid, err := RankColumns(s.table, users)
	if err != nil {
		return err
	}
	cols := len(s.table.Labels())
	if err := s.store.ClearRegion(ctx, s.rankSheet, sheets.Columns(cols)); err != nil {
		return err
	}
	return s.store.WriteRegion(ctx, s.rankSheet, sheets.Region(cols, len(grid)), grid)
}

// BalanceRows renders users as name/balance pairs in the given order.
func BalanceRows(users []models.User) [][]string {
	rows := make([][]string, len(users))
	for i, u := range users {
		name := u.Name
		if name == "" {
			name = u.ID
		}
		rows[i] = []string{name, strconv.FormatInt(u.Balance, 10)}
	}
	return rows
}

// RankColumns buckets users into one column per rank, highest rank first, with
// the rank label as header. Shorter columns are padded with empty cells.
// The rank is derived from the balance, not read from the record.
func RankColumns(table *ranks.Table, users []models.User) ([][]string, error) {
	labels := table.Labels()
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = len(labels) - 1 - i
	}

	columns := make([][]string, len(labels))
	height := 0
	for _, u := range users {
		rank, err := table.Classify(u.Balance)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		col := index[rank]
		name := u.Name
		if name == "" {
			name = u.ID
		}
		columns[col] = append(columns[col], name)
		if len(columns[col]) > height {
			height = len(columns[col])
		}
	}

	grid := make([][]string, height+1)
	grid[0] = make([]string, len(labels))
	for i := range labels {
		grid[0][len(labels)-1-i] = labels[i]
	}
	for r := 1; r <= height; r++ {
		row := make([]string, len(labels))
		for c, col := range columns {
			if r-1 < len(col) {
				row[c] = col[r-1]
			}
		}
		grid[r] = row
	}
	return grid, nil
}
