// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package postgres implements the directory store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/realmdir/realmdir/internal/directory"
	"github.com/realmdir/realmdir/internal/srp6"
	"github.com/realmdir/realmdir/pkg/errutil"
)

// db abstracts query execution so the store can run against a
// *pgxpool.Pool in production and a pgxmock pool in tests. Each call
// borrows a pooled connection for the duration of one statement and
// returns it unconditionally.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements directory.Store. It is the only component that issues
// storage operations or inspects raw storage failures.
type Store struct {
	db     db
	logger *slog.Logger
}

// NewStore creates a Store over an open pool.
func NewStore(pool db, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, oops.Errorf("pool is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Store{db: pool, logger: logger}, nil
}

// Connect opens a connection pool and verifies it with a few backed-off
// pings. This is the only place retries happen; individual directory
// operations never retry.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}
	return pool, nil
}

// ListAccounts returns all accounts projected to the requested fields.
func (s *Store) ListAccounts(ctx context.Context, fields []string) ([]directory.Account, error) {
	cols := directory.PlanColumns(directory.AccountColumns, fields)

	rows, err := s.db.Query(ctx, `SELECT `+cols+` FROM account`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	accounts, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[directory.Account])
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "collect rows").Wrap(err)
	}
	return accounts, nil
}

// GetAccount returns exactly one account or directory.ErrNotFound. Any
// storage failure is normalized to the same not-found error; the raw cause
// is logged here and not distinguished to the caller.
func (s *Store) GetAccount(ctx context.Context, id uint64, fields []string) (*directory.Account, error) {
	cols := directory.PlanColumns(directory.AccountColumns, fields)

	rows, err := s.db.Query(ctx, `SELECT `+cols+` FROM account WHERE id = $1`, id)
	if err != nil {
		errutil.LogError(s.logger, "get account query failed", err)
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id).Wrap(directory.ErrNotFound)
	}
	account, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[directory.Account])
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			errutil.LogError(s.logger, "get account scan failed", err)
		}
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id).Wrap(directory.ErrNotFound)
	}
	return &account, nil
}

// UsernameExists reports whether an account with the username exists. The
// lookup uses the protocol-normalized form, matching how usernames are
// stored. A username that cannot be normalized cannot exist.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	normalized, err := srp6.Normalize(username)
	if err != nil {
		return false, nil
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM account WHERE username = $1)`, normalized).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_CHECK_FAILED").With("username", normalized).Wrap(err)
	}
	return exists, nil
}

// SetPassword derives a fresh credential pair for the username and
// persists it, reporting whether a row was updated. Any live session key is
// cleared so the rotation takes effect on the next handshake.
func (s *Store) SetPassword(ctx context.Context, username, password string) (bool, error) {
	cred, err := srp6.DeriveCredential(username, password)
	if err != nil {
		return false, oops.Code("ACCOUNT_INVALID_INPUT").Wrapf(directory.ErrInvalidInput, "%s", err.Error())
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE account SET salt = $2, verifier = $3, session_key = NULL WHERE username = $1`,
		cred.Username, cred.Salt, cred.Verifier)
	if err != nil {
		return false, oops.Code("ACCOUNT_SET_PASSWORD_FAILED").With("username", cred.Username).Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateAccount derives a credential pair, inserts the account row, and
// fans out one realmcharacters row per known realm. The fan-out is a
// separate statement: if it fails the caller gets the new id together with
// directory.ErrProvisionIncomplete instead of a silent loss.
func (s *Store) CreateAccount(ctx context.Context, username, password, email string) (uint64, error) {
	cred, err := srp6.DeriveCredential(username, password)
	if err != nil {
		return 0, oops.Code("ACCOUNT_INVALID_INPUT").Wrapf(directory.ErrInvalidInput, "%s", err.Error())
	}
	mail, err := srp6.NormalizeEmail(email)
	if err != nil {
		return 0, oops.Code("ACCOUNT_INVALID_INPUT").Wrapf(directory.ErrInvalidInput, "%s", err.Error())
	}

	var id uint64
	err = s.db.QueryRow(ctx,
		`INSERT INTO account (username, email, reg_mail, salt, verifier, expansion, joindate)
		 VALUES ($1, $2, $2, $3, $4, $5, NOW())
		 RETURNING id`,
		cred.Username, mail, cred.Salt, cred.Verifier, directory.DefaultExpansion).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, oops.Code("ACCOUNT_EXISTS").
				With("username", cred.Username).
				Wrap(directory.ErrAlreadyExists)
		}
		errutil.LogError(s.logger, "create account insert failed", err)
		return 0, oops.Code("ACCOUNT_CREATE_FAILED").Wrap(directory.ErrCreateFailed)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO realmcharacters (realmid, acctid, numchars)
		 SELECT r.id, $1, 0 FROM realmlist r
		 ON CONFLICT (realmid, acctid) DO NOTHING`, id)
	if err != nil {
		errutil.LogError(s.logger, "realm character provisioning failed", err)
		return id, oops.Code("ACCOUNT_PROVISION_INCOMPLETE").
			With("account_id", id).
			Wrap(directory.ErrProvisionIncomplete)
	}
	return id, nil
}

// DeleteAccount removes at most one account, reporting whether a row was
// removed. Storage failures are absorbed into "no row removed" and logged.
func (s *Store) DeleteAccount(ctx context.Context, id uint64) bool {
	tag, err := s.db.Exec(ctx, `DELETE FROM account WHERE id = $1`, id)
	if err != nil {
		errutil.LogError(s.logger, "delete account failed", err)
		return false
	}
	return tag.RowsAffected() > 0
}

// GrantsForAccount returns the account's privilege grants projected to the
// requested fields.
func (s *Store) GrantsForAccount(ctx context.Context, accountID uint64, fields []string) ([]directory.AccessGrant, error) {
	cols := directory.PlanColumns(directory.GrantColumns, fields)

	rows, err := s.db.Query(ctx, `SELECT `+cols+` FROM account_access WHERE id = $1`, accountID)
	if err != nil {
		return nil, oops.Code("GRANT_LIST_FAILED").With("account_id", accountID).Wrap(err)
	}
	grants, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[directory.AccessGrant])
	if err != nil {
		return nil, oops.Code("GRANT_LIST_FAILED").
			With("account_id", accountID).
			With("operation", "collect rows").
			Wrap(err)
	}
	return grants, nil
}

// CharacterSummaries returns the account's per-realm character counts with
// the realm display name resolved by join. No projection is applied.
func (s *Store) CharacterSummaries(ctx context.Context, accountID uint64) ([]directory.RealmCharacterSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT rc.realmid AS realmid,
		       rc.acctid AS acctid,
		       rc.numchars AS numchars,
		       rl.name AS realmname
		FROM realmcharacters rc
		JOIN realmlist rl ON rl.id = rc.realmid
		WHERE rc.acctid = $1`, accountID)
	if err != nil {
		return nil, oops.Code("REALM_CHARACTERS_FAILED").With("account_id", accountID).Wrap(err)
	}
	summaries, err := pgx.CollectRows(rows, pgx.RowToStructByName[directory.RealmCharacterSummary])
	if err != nil {
		return nil, oops.Code("REALM_CHARACTERS_FAILED").
			With("account_id", accountID).
			With("operation", "collect rows").
			Wrap(err)
	}
	return summaries, nil
}
