// Package sqlstore implements ledger.Store on top of GORM. It works with the
// Postgres, MySQL and SQLite dialectors.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pocketledger/internal/ledger"
)

// Document is one stored record.
type Document struct {
	UserID     string    `gorm:"primaryKey;size:64"`
	Collection string    `gorm:"primaryKey;size:32"`
	ID         string    `gorm:"primaryKey;size:64"`
	Data       string    `gorm:"type:text;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName overrides the GORM default.
func (Document) TableName() string { return "ledger_documents" }

// Revision is the per-user compare-and-swap token.
type Revision struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	Revision  int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName overrides the GORM default.
func (Revision) TableName() string { return "ledger_revisions" }

// Models lists the tables this package needs, for AutoMigrate.
func Models() []any {
	return []any{&Document{}, &Revision{}}
}

// Store is a GORM-backed ledger.Store.
type Store struct {
	db     *gorm.DB
	policy ledger.RetryPolicy
	now    func() time.Time
}

var _ ledger.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy overrides the transaction retry policy.
func WithRetryPolicy(p ledger.RetryPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// New wraps an open GORM handle. The ledger tables must already exist.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		policy: ledger.DefaultRetryPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, path ledger.Path) (json.RawMessage, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	var doc Document
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ? AND id = ?", path.UserID, string(path.Collection), path.ID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, path)
		}
		return nil, fmt.Errorf("sqlstore: get %s: %w", path, err)
	}
	return json.RawMessage(doc.Data), nil
}

// Set upserts one record and bumps the user's revision.
func (s *Store) Set(ctx context.Context, path ledger.Path, data json.RawMessage) error {
	return s.UpdateMulti(ctx, path.UserID, []ledger.Write{{Path: path, Data: data}})
}

// Delete removes one record and bumps the user's revision.
func (s *Store) Delete(ctx context.Context, path ledger.Path) error {
	return s.UpdateMulti(ctx, path.UserID, []ledger.Write{{Path: path, Delete: true}})
}

// UpdateMulti applies writes in one database transaction with a single
// revision bump.
func (s *Store) UpdateMulti(ctx context.Context, userID string, writes []ledger.Write) error {
	for _, w := range writes {
		if err := w.Path.Validate(); err != nil {
			return err
		}
		if w.Path.UserID != userID {
			return fmt.Errorf("%w: write %s outside user %s", ledger.ErrInvalidPath, w.Path, userID)
		}
	}
	if len(writes) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRevision(tx, userID); err != nil {
			return err
		}
		if err := s.applyWrites(tx, writes); err != nil {
			return err
		}
		return tx.Model(&Revision{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"revision":   gorm.Expr("revision + ?", 1),
				"updated_at": s.now(),
			}).Error
	})
	if err != nil {
		return fmt.Errorf("sqlstore: update user %s: %w", userID, err)
	}
	return nil
}

// List loads every record in the collection.
func (s *Store) List(ctx context.Context, userID string, coll ledger.Collection) ([]json.RawMessage, error) {
	docs, err := s.listDocs(ctx, userID, coll)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		out = append(out, json.RawMessage(doc.Data))
	}
	return out, nil
}

func (s *Store) listDocs(ctx context.Context, userID string, coll ledger.Collection) ([]Document, error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("%w: collection %q", ledger.ErrInvalidPath, coll)
	}
	var docs []Document
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, string(coll)).
		Order("id").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", coll, err)
	}
	return docs, nil
}

// QueryByField loads the collection and filters in process. Field equality
// over JSON columns is dialect specific; subtrees are per user and small.
func (s *Store) QueryByField(ctx context.Context, userID string, coll ledger.Collection, field string, value any) ([]json.RawMessage, error) {
	docs, err := s.listDocs(ctx, userID, coll)
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for _, doc := range docs {
		raw := json.RawMessage(doc.Data)
		match, err := ledger.MatchField(raw, field, value)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, raw)
		}
	}
	return out, nil
}

// Revision returns the user's current revision; users with no writes are at 0.
func (s *Store) Revision(ctx context.Context, userID string) (int64, error) {
	return s.readRevision(s.db.WithContext(ctx), userID)
}

func (s *Store) readRevision(db *gorm.DB, userID string) (int64, error) {
	var rev Revision
	err := db.Where("user_id = ?", userID).Limit(1).Find(&rev).Error
	if err != nil {
		return 0, fmt.Errorf("sqlstore: read revision: %w", err)
	}
	return rev.Revision, nil
}

// RunTransaction runs fn under optimistic concurrency.
func (s *Store) RunTransaction(ctx context.Context, userID string, fn func(*ledger.Tree) error) error {
	return ledger.RunOptimistic(ctx, s.policy, userID, s, fn)
}

// Snapshot implements ledger.Committer. The revision is read before the
// documents so a concurrent commit can only make the documents newer than
// the revision, which the CAS in CommitIfUnchanged then rejects.
func (s *Store) Snapshot(ctx context.Context, userID string) (int64, ledger.Snapshot, error) {
	db := s.db.WithContext(ctx)

	rev, err := s.readRevision(db, userID)
	if err != nil {
		return 0, nil, err
	}

	var docs []Document
	if err := db.Where("user_id = ?", userID).Find(&docs).Error; err != nil {
		return 0, nil, fmt.Errorf("sqlstore: snapshot: %w", err)
	}

	snap := ledger.Snapshot{}
	for _, doc := range docs {
		coll := ledger.Collection(doc.Collection)
		if snap[coll] == nil {
			snap[coll] = make(map[string]json.RawMessage)
		}
		snap[coll][doc.ID] = json.RawMessage(doc.Data)
	}
	return rev, snap, nil
}

// CommitIfUnchanged implements ledger.Committer. The conditional revision
// bump runs first so that concurrent committers serialize on the revision
// row; zero affected rows means another writer got there first.
func (s *Store) CommitIfUnchanged(ctx context.Context, userID string, base int64, writes []ledger.Write) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRevision(tx, userID); err != nil {
			return err
		}

		res := tx.Model(&Revision{}).
			Where("user_id = ? AND revision = ?", userID, base).
			Updates(map[string]any{
				"revision":   gorm.Expr("revision + ?", 1),
				"updated_at": s.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("sqlstore: bump revision: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ledger.ErrConflict
		}

		return s.applyWrites(tx, writes)
	})
}

func (s *Store) ensureRevision(tx *gorm.DB, userID string) error {
	row := Revision{UserID: userID, UpdatedAt: s.now()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("sqlstore: ensure revision: %w", err)
	}
	return nil
}

func (s *Store) applyWrites(tx *gorm.DB, writes []ledger.Write) error {
	now := s.now()
	for _, w := range writes {
		if w.Delete {
			if err := tx.Where("user_id = ? AND collection = ? AND id = ?",
				w.Path.UserID, string(w.Path.Collection), w.Path.ID).
				Delete(&Document{}).Error; err != nil {
				return fmt.Errorf("sqlstore: delete %s: %w", w.Path, err)
			}
			continue
		}

		doc := Document{
			UserID:     w.Path.UserID,
			Collection: string(w.Path.Collection),
			ID:         w.Path.ID,
			Data:       string(w.Data),
			UpdatedAt:  now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&doc).Error; err != nil {
			return fmt.Errorf("sqlstore: put %s: %w", w.Path, err)
		}
	}
	return nil
}
