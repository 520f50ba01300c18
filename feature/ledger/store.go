package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"doubloon-tracker/core/database"
	"doubloon-tracker/core/ranks"
	"doubloon-tracker/feature/ledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the balance table. It is the single source of truth for balances and
// the only place they are written.
type Store struct {
	db    *gorm.DB
	table *ranks.Table
	locks *keyedMutex
	now   func() time.Time
}

// NewStore creates a store over db classifying ranks with table.
func NewStore(db *gorm.DB, table *ranks.Table) *Store {
	return &Store{
		db:    db,
		table: table,
		locks: newKeyedMutex(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or upgrades the users table and checks the result.
// Rows from older revisions get timestamps so freshness checks can read them.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	now := s.now()
	for _, col := range []string{"created_at", "updated_at"} {
		err := db.Model(&models.User{}).
			Where(col + " IS NULL").
			UpdateColumn(col, now).Error
		if err != nil {
			return fmt.Errorf("failed to backfill %s: %w", col, err)
		}
	}
	return s.Verify(ctx)
}

// Verify checks that the users table has every column the store uses.
func (s *Store) Verify(ctx context.Context) error {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), models.User{}.TableName(), models.Columns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("users table is missing columns: %v", missing)
	}
	return nil
}

// Get returns the record for id, or ErrUserNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &u, nil
}

// insertIfAbsent creates a zero-balance, lowest-rank record. It reports whether a row was created.
func (s *Store) insertIfAbsent(tx *gorm.DB, id, name string) (bool, error) {
	now := s.now()
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.User{
		ID:        id,
		Name:      name,
		Balance:   0,
		Rank:      s.table.Lowest(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if res.Error != nil {
		return false, fmt.Errorf("failed to create user %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpsertIfAbsent creates a zero-balance record for id when none exists.
// An existing record is left untouched.
func (s *Store) UpsertIfAbsent(ctx context.Context, id, name string) (bool, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)
	return s.insertIfAbsent(s.db.WithContext(ctx), id, name)
}

// Register creates the record when absent, otherwise only renames it.
func (s *Store) Register(ctx context.Context, id, name string) (*models.User, bool, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	var (
		u       models.User
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if created, err = s.insertIfAbsent(tx, id, name); err != nil {
			return err
		}
		if !created {
			err = tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
				"username":   name,
				"updated_at": s.now(),
			}).Error
			if err != nil {
				return fmt.Errorf("failed to rename user %s: %w", id, err)
			}
		}
		return tx.Where("id = ?", id).Take(&u).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &u, created, nil
}

// ApplyDelta is the only balance mutation. In one transaction it reads the record,
// rejects the change if the balance would go negative, reclassifies the rank and
// writes balance, rank and (when non-empty) the display name back.
//
// With createIfMissing the record is created first if absent; otherwise an absent
// record fails with ErrUserNotFound. A rejected change leaves the row untouched.
// Calls for the same user are serialized.
func (s *Store) ApplyDelta(ctx context.Context, id string, delta int64, name string, createIfMissing bool) (*models.Mutation, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	var m models.Mutation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createIfMissing {
			created, err := s.insertIfAbsent(tx, id, name)
			if err != nil {
				return err
			}
			m.Created = created
		}

		var u models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load user %s: %w", id, err)
		}

		oldRank := u.Rank
		if oldRank == "" {
			if oldRank, err = s.table.Classify(u.Balance); err != nil {
				return err
			}
		}

		if delta == math.MinInt64 || (delta > 0 && u.Balance > math.MaxInt64-delta) {
			return fmt.Errorf("%w: %d does not fit the balance of %s", ErrInvalidMagnitude, delta, id)
		}
		newBalance := u.Balance + delta
		if newBalance < 0 {
			return &InsufficientBalanceError{UserID: id, Name: u.Name, Balance: u.Balance, Requested: -delta}
		}
		newRank, err := s.table.Classify(newBalance)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"doubloons":  newBalance,
			"rank":       newRank,
			"updated_at": s.now(),
		}
		if name != "" {
			updates["username"] = name
			u.Name = name
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user %s: %w", id, err)
		}

		m.UserID = id
		m.Name = u.Name
		m.OldBalance = u.Balance
		m.NewBalance = newBalance
		m.OldRank = oldRank
		m.NewRank = newRank
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListAll returns every record ordered by id. Callers sort for display.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// LastModified returns the newest updated_at in the table, the zero time when empty.
// Any write (balance or rename) advances it, which errs on the side of re-exporting.
func (s *Store) LastModified(ctx context.Context) (time.Time, error) {
	var u models.User
	err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last modification: %w", err)
	}
	return u.UpdatedAt, nil
}

// RepairRanks rewrites every rank that disagrees with the tier table, e.g. after the
// table was reconfigured or for rows written before ranks were stored.
func (s *Store) RepairRanks(ctx context.Context) ([]models.Mutation, error) {
	users, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var repaired []models.Mutation
	for _, u := range users {
		want, err := s.table.Classify(u.Balance)
		if err != nil {
			return repaired, fmt.Errorf("user %s: %w", u.ID, err)
		}
		if want == u.Rank {
			continue
		}

		// The balance guard skips rows changed since ListAll; ApplyDelta already fixed those.
		s.locks.Lock(u.ID)
		res := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND doubloons = ?", u.ID, u.Balance).
			Updates(map[string]any{"rank": want, "updated_at": s.now()})
		s.locks.Unlock(u.ID)
		if res.Error != nil {
			return repaired, fmt.Errorf("failed to repair rank of %s: %w", u.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		repaired = append(repaired, models.Mutation{
			UserID:     u.ID,
			Name:       u.Name,
			OldBalance: u.Balance,
			NewBalance: u.Balance,
			OldRank:    u.Rank,
			NewRank:    want,
		})
	}
	return repaired, nil
}
