// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory

import "errors"

// Domain error taxonomy. The store is the only layer that inspects raw
// storage failures; everything above it sees these sentinels (wrapped with
// oops context) and nothing else.
var (
	// ErrNotFound is returned when a requested account id does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrAlreadyExists is returned when account creation hits the username
	// uniqueness constraint.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrInvalidInput is returned when a username, password, or email fails
	// protocol normalization.
	ErrInvalidInput = errors.New("invalid account input")

	// ErrCreateFailed is returned for any other account-creation failure.
	ErrCreateFailed = errors.New("account cannot be created")

	// ErrProvisionIncomplete is returned when the account row was created
	// but the per-realm character-summary fan-out failed. The new account
	// id is still returned alongside it.
	ErrProvisionIncomplete = errors.New("account created but realm provisioning incomplete")
)
