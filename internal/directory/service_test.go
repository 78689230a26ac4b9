// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmdir/realmdir/internal/directory"
)

// stubStore implements directory.Store with canned responses.
type stubStore struct {
	accounts    []directory.Account
	account     *directory.Account
	listErr     error
	getErr      error
	exists      bool
	existsErr   error
	updated     bool
	setErr      error
	createdID   uint64
	createErr   error
	deleted     bool
	grants      []directory.AccessGrant
	grantsErr   error
	summaries   []directory.RealmCharacterSummary
	summaryErr  error
	gotFields   []string
	gotUsername string
}

func (s *stubStore) ListAccounts(_ context.Context, fields []string) ([]directory.Account, error) {
	s.gotFields = fields
	return s.accounts, s.listErr
}

func (s *stubStore) GetAccount(_ context.Context, _ uint64, fields []string) (*directory.Account, error) {
	s.gotFields = fields
	return s.account, s.getErr
}

func (s *stubStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.gotUsername = username
	return s.exists, s.existsErr
}

func (s *stubStore) SetPassword(_ context.Context, username, _ string) (bool, error) {
	s.gotUsername = username
	return s.updated, s.setErr
}

func (s *stubStore) CreateAccount(_ context.Context, username, _, _ string) (uint64, error) {
	s.gotUsername = username
	return s.createdID, s.createErr
}

func (s *stubStore) DeleteAccount(context.Context, uint64) bool {
	return s.deleted
}

func (s *stubStore) GrantsForAccount(_ context.Context, _ uint64, fields []string) ([]directory.AccessGrant, error) {
	s.gotFields = fields
	return s.grants, s.grantsErr
}

func (s *stubStore) CharacterSummaries(context.Context, uint64) ([]directory.RealmCharacterSummary, error) {
	return s.summaries, s.summaryErr
}

func newTestService(t *testing.T, store directory.Store) *directory.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := directory.NewService(store, logger, 0)
	require.NoError(t, err)
	return svc
}

func TestNewService_NilDependencies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := directory.NewService(nil, logger, 0)
	require.Error(t, err)
	assert.Nil(t, svc)

	svc, err = directory.NewService(&stubStore{}, nil, 0)
	require.Error(t, err)
	assert.Nil(t, svc)
}

func TestService_ListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns accounts from store", func(t *testing.T) {
		store := &stubStore{accounts: []directory.Account{{ID: 1, Username: "ALICE"}}}
		svc := newTestService(t, store)

		got := svc.ListAccounts(ctx, []string{"id", "username"})
		require.Len(t, got, 1)
		assert.Equal(t, uint64(1), got[0].ID)
		assert.Equal(t, []string{"id", "username"}, store.gotFields)
	})

	t.Run("absorbs storage failure into empty result", func(t *testing.T) {
		store := &stubStore{listErr: oops.Code("ACCOUNT_LIST_FAILED").Errorf("connection refused")}
		svc := newTestService(t, store)

		got := svc.ListAccounts(ctx, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestService_GetAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account", func(t *testing.T) {
		store := &stubStore{account: &directory.Account{ID: 7, Username: "ALICE"}}
		svc := newTestService(t, store)

		got, err := svc.GetAccount(ctx, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), got.ID)
	})

	t.Run("propagates not found", func(t *testing.T) {
		store := &stubStore{getErr: oops.Wrap(directory.ErrNotFound)}
		svc := newTestService(t, store)

		_, err := svc.GetAccount(ctx, 99, nil)
		require.ErrorIs(t, err, directory.ErrNotFound)
	})
}

func TestService_CheckUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("reports existence", func(t *testing.T) {
		svc := newTestService(t, &stubStore{exists: true})
		ok, err := svc.CheckUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("surfaces storage errors", func(t *testing.T) {
		svc := newTestService(t, &stubStore{existsErr: errors.New("timeout")})
		_, err := svc.CheckUsername(ctx, "alice")
		require.Error(t, err)
	})
}

func TestService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns new id", func(t *testing.T) {
		svc := newTestService(t, &stubStore{createdID: 12})
		id, err := svc.CreateAccount(ctx, "alice", "Secret123!", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, uint64(12), id)
	})

	t.Run("already exists surfaces distinctly", func(t *testing.T) {
		store := &stubStore{createErr: oops.Code("ACCOUNT_EXISTS").Wrap(directory.ErrAlreadyExists)}
		svc := newTestService(t, store)

		_, err := svc.CreateAccount(ctx, "alice", "Secret123!", "alice@example.com")
		require.ErrorIs(t, err, directory.ErrAlreadyExists)
	})

	t.Run("partial provisioning still returns the id", func(t *testing.T) {
		store := &stubStore{createdID: 13, createErr: oops.Wrap(directory.ErrProvisionIncomplete)}
		svc := newTestService(t, store)

		id, err := svc.CreateAccount(ctx, "alice", "Secret123!", "alice@example.com")
		require.ErrorIs(t, err, directory.ErrProvisionIncomplete)
		assert.Equal(t, uint64(13), id)
	})
}

func TestService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t, &stubStore{deleted: true})
	assert.True(t, svc.DeleteAccount(ctx, 1))

	svc = newTestService(t, &stubStore{deleted: false})
	assert.False(t, svc.DeleteAccount(ctx, 404))
}

func TestService_Grants(t *testing.T) {
	ctx := context.Background()
	comment := "gm for realm 3"

	store := &stubStore{grants: []directory.AccessGrant{
		{ID: 1, GMLevel: 3, RealmID: 3, Comment: &comment},
	}}
	svc := newTestService(t, store)

	grants, err := svc.Grants(ctx, 1, []string{"gmlevel", "realmid"})
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, uint8(3), grants[0].GMLevel)
	assert.Equal(t, []string{"gmlevel", "realmid"}, store.gotFields)
}

func TestService_CharacterSummaries(t *testing.T) {
	ctx := context.Background()

	store := &stubStore{summaries: []directory.RealmCharacterSummary{
		{RealmID: 1, AccountID: 2, NumChars: 5, RealmName: "Icecrown"},
	}}
	svc := newTestService(t, store)

	got, err := svc.CharacterSummaries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Icecrown", got[0].RealmName)

	store.summaryErr = errors.New("join failed")
	_, err = svc.CharacterSummaries(ctx, 2)
	require.Error(t, err)
}
