// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/realmdir/realmdir/pkg/errutil"
)

// DefaultOperationTimeout bounds every directory operation. The backing
// store performs no retries, so a single bounded attempt is the whole
// failure budget.
const DefaultOperationTimeout = 5 * time.Second

// Service is the directory facade: it resolves requested field sets, asks
// the store to execute projected queries and mutations, and returns
// entities or domain errors.
type Service struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewService creates a Service. A timeout <= 0 selects
// DefaultOperationTimeout.
func NewService(store Store, logger *slog.Logger, timeout time.Duration) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &Service{store: store, logger: logger, timeout: timeout}, nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// ListAccounts returns all accounts projected to the requested fields.
// Storage failures are absorbed into an empty result and logged; callers
// of the list verb never see an error.
func (s *Service) ListAccounts(ctx context.Context, fields []string) []Account {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	accounts, err := s.store.ListAccounts(ctx, fields)
	if err != nil {
		errutil.LogError(s.logger, "list accounts failed", err)
		return []Account{}
	}
	return accounts
}

// GetAccount returns one account projected to the requested fields, or
// ErrNotFound.
func (s *Service) GetAccount(ctx context.Context, id uint64, fields []string) (*Account, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.store.GetAccount(ctx, id, fields)
}

// CheckUsername reports whether an account with the given username exists.
func (s *Service) CheckUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.store.UsernameExists(ctx, username)
}

// SetPassword rotates the credential pair for an existing username. It
// reports whether a row was updated; it does not otherwise validate that
// the account exists.
func (s *Service) SetPassword(ctx context.Context, username, password string) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.store.SetPassword(ctx, username, password)
}

// CreateAccount issues a credential pair for the new account and persists
// it. The plaintext password is discarded as soon as derivation completes.
// When realm provisioning fails after the account row was created, the new
// id is returned together with ErrProvisionIncomplete.
func (s *Service) CreateAccount(ctx context.Context, username, password, email string) (uint64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	id, err := s.store.CreateAccount(ctx, username, password, email)
	if err == nil {
		s.logger.Info("account created", "account_id", id)
	}
	return id, err
}

// DeleteAccount removes an account unconditionally, reporting whether a row
// was removed. Deleting a non-existent id returns false without error.
func (s *Service) DeleteAccount(ctx context.Context, id uint64) bool {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	deleted := s.store.DeleteAccount(ctx, id)
	if deleted {
		s.logger.Info("account deleted", "account_id", id)
	}
	return deleted
}

// Grants returns the privilege grants of one account projected to the
// requested fields. Resolved only when a caller asks for the relation.
func (s *Service) Grants(ctx context.Context, accountID uint64, fields []string) ([]AccessGrant, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.store.GrantsForAccount(ctx, accountID, fields)
}

// CharacterSummaries returns the per-realm character counts of one
// account. Resolved only when a caller asks for the relation.
func (s *Service) CharacterSummaries(ctx context.Context, accountID uint64) ([]RealmCharacterSummary, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.store.CharacterSummaries(ctx, accountID)
}
