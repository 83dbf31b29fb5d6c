// Package drafts persists proposals between exports, keyed by a caller-chosen
// name. Bodies are stored as proposal JSON.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

var (
	// ErrNotFound is returned when no draft has the requested key.
	ErrNotFound = errors.New("draft not found")
	// ErrInvalidKey is returned for blank keys.
	ErrInvalidKey = errors.New("invalid draft key")
)

const draftsTable = "`drafts`"

// Draft is one stored proposal.
type Draft struct {
	Key       string    `db:"key"`
	Body      string    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Summary describes a draft without its body.
type Summary struct {
	Key       string    `db:"key"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store reads and writes drafts.
type Store struct {
	conn sqlx.SqlConn
	now  func() time.Time
}

// NewStore returns a store over conn.
func NewStore(conn sqlx.SqlConn) *Store {
	return &Store{conn: conn, now: time.Now}
}

// Save inserts or replaces the draft stored under key.
func (s *Store) Save(ctx context.Context, key string, p *proposal.Proposal) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidKey
	}
	if p == nil {
		return fmt.Errorf("save draft %q: %w", key, proposal.ErrInvalidProposal)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode draft %q: %w", key, err)
	}

	query := fmt.Sprintf("insert into %s (`key`, `body`, `updated_at`) values (?, ?, ?) "+
		"on conflict(`key`) do update set `body` = excluded.`body`, `updated_at` = excluded.`updated_at`", draftsTable)
	if _, err := s.conn.ExecCtx(ctx, query, key, string(body), s.now().UTC()); err != nil {
		return fmt.Errorf("save draft %q: %w", key, err)
	}
	return nil
}

// Load returns the proposal stored under key.
func (s *Store) Load(ctx context.Context, key string) (*proposal.Proposal, error) {
	var d Draft
	query := fmt.Sprintf("select `key`, `body`, `updated_at` from %s where `key` = ? limit 1", draftsTable)
	err := s.conn.QueryRowCtx(ctx, &d, query, strings.TrimSpace(key))
	switch {
	case errors.Is(err, sqlx.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case err != nil:
		return nil, fmt.Errorf("load draft %q: %w", key, err)
	}

	var p proposal.Proposal
	if err := json.Unmarshal([]byte(d.Body), &p); err != nil {
		return nil, fmt.Errorf("decode draft %q: %w", key, err)
	}
	return &p, nil
}

// List returns every draft, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var resp []Summary
	query := fmt.Sprintf("select `key`, `updated_at` from %s order by `updated_at` desc, `key`", draftsTable)
	if err := s.conn.QueryRowsCtx(ctx, &resp, query); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return resp, nil
}

// Delete removes the draft stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("delete from %s where `key` = ?", draftsTable)
	res, err := s.conn.ExecCtx(ctx, query, strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("delete draft %q: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}
