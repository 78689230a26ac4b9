// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory

import "context"

// Store translates directory operations into storage calls and maps
// storage failures into the domain error taxonomy. Implementations own the
// connection pool exclusively; every projected read runs its field list
// through PlanColumns before any query text is built.
type Store interface {
	// ListAccounts returns all accounts projected to the requested fields.
	ListAccounts(ctx context.Context, fields []string) ([]Account, error)

	// GetAccount returns exactly one account or ErrNotFound. Storage
	// failures of any kind are normalized to ErrNotFound.
	GetAccount(ctx context.Context, id uint64, fields []string) (*Account, error)

	// UsernameExists reports whether an account with the username exists.
	// Storage failures surface as explicit errors, never as false.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// SetPassword derives a fresh salt and verifier for the username and
	// persists them, reporting whether a row was affected.
	SetPassword(ctx context.Context, username, password string) (bool, error)

	// CreateAccount derives credentials, inserts the account row, and
	// provisions one character-summary row per known realm. On fan-out
	// failure the new id is returned together with ErrProvisionIncomplete.
	CreateAccount(ctx context.Context, username, password, email string) (uint64, error)

	// DeleteAccount removes at most one account, reporting whether a row
	// was removed. Storage failures are absorbed and logged.
	DeleteAccount(ctx context.Context, id uint64) bool

	// GrantsForAccount returns the account's privilege grants projected to
	// the requested fields.
	GrantsForAccount(ctx context.Context, accountID uint64, fields []string) ([]AccessGrant, error)

	// CharacterSummaries returns the account's per-realm character counts
	// with realm names resolved. Always a full-column join read.
	CharacterSummaries(ctx context.Context, accountID uint64) ([]RealmCharacterSummary, error)
}
