// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

//go:build integration

package integration_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/realmdir/realmdir/internal/directory"
)

var _ = Describe("Account lifecycle", func() {
	BeforeEach(func() {
		cleanupAccounts(env.ctx, env.pool)
		seedRealm(env.ctx, env.pool, "Icecrown")
	})

	It("creates, reads, and deletes an account", func() {
		id, err := env.svc.CreateAccount(env.ctx, "alice", "Secret123!", "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).NotTo(BeZero())

		account, err := env.svc.GetAccount(env.ctx, id, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(account.Username).To(Equal("ALICE"))
		Expect(account.Email).To(Equal("alice@example.com"))
		Expect(account.Salt).To(HaveLen(32))
		Expect(account.Verifier).To(HaveLen(32))

		exists, err := env.svc.CheckUsername(env.ctx, "Alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		Expect(env.svc.DeleteAccount(env.ctx, id)).To(BeTrue())

		_, err = env.svc.GetAccount(env.ctx, id, nil)
		Expect(errors.Is(err, directory.ErrNotFound)).To(BeTrue())
	})

	It("rejects a duplicate username regardless of case", func() {
		_, err := env.svc.CreateAccount(env.ctx, "bob", "Secret123!", "bob@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.svc.CreateAccount(env.ctx, "BOB", "Other456?", "bob2@example.com")
		Expect(errors.Is(err, directory.ErrAlreadyExists)).To(BeTrue())
	})

	It("provisions one realm character row per realm", func() {
		seedRealm(env.ctx, env.pool, "Blackrock")

		id, err := env.svc.CreateAccount(env.ctx, "carol", "Secret123!", "carol@example.com")
		Expect(err).NotTo(HaveOccurred())

		summaries, err := env.svc.CharacterSummaries(env.ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
		for _, s := range summaries {
			Expect(s.NumChars).To(BeZero())
		}
	})

	It("deleting a missing id reports false", func() {
		Expect(env.svc.DeleteAccount(env.ctx, 424242)).To(BeFalse())
	})
})

var _ = Describe("Credential rotation", func() {
	BeforeEach(func() {
		cleanupAccounts(env.ctx, env.pool)
	})

	It("replaces the salt and verifier and clears the session key", func() {
		id, err := env.svc.CreateAccount(env.ctx, "dave", "Original1!", "dave@example.com")
		Expect(err).NotTo(HaveOccurred())

		before, err := env.svc.GetAccount(env.ctx, id, []string{"id", "salt", "verifier"})
		Expect(err).NotTo(HaveOccurred())

		updated, err := env.svc.SetPassword(env.ctx, "dave", "Rotated2@")
		Expect(err).NotTo(HaveOccurred())
		Expect(updated).To(BeTrue())

		after, err := env.svc.GetAccount(env.ctx, id, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(after.Salt).NotTo(Equal(before.Salt))
		Expect(after.Verifier).NotTo(Equal(before.Verifier))
		Expect(after.SessionKey).To(BeEmpty())
	})

	It("reports false for an unknown username", func() {
		updated, err := env.svc.SetPassword(env.ctx, "nobody", "Whatever1!")
		Expect(err).NotTo(HaveOccurred())
		Expect(updated).To(BeFalse())
	})

	It("rejects an unrepresentable password", func() {
		_, err := env.svc.SetPassword(env.ctx, "dave", "contains spaces here")
		Expect(errors.Is(err, directory.ErrInvalidInput)).To(BeTrue())
	})
})

var _ = Describe("Projected reads", func() {
	BeforeEach(func() {
		cleanupAccounts(env.ctx, env.pool)

		_, err := env.svc.CreateAccount(env.ctx, "erin", "Secret123!", "erin@example.com")
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns only the requested fields", func() {
		accounts := env.svc.ListAccounts(env.ctx, []string{"id", "username"})
		Expect(accounts).To(HaveLen(1))
		Expect(accounts[0].Username).To(Equal("ERIN"))
		Expect(accounts[0].Email).To(BeEmpty())
		Expect(accounts[0].Salt).To(BeEmpty())
	})

	It("falls back to all columns when every requested field is unknown", func() {
		accounts := env.svc.ListAccounts(env.ctx, []string{"no_such_column"})
		Expect(accounts).To(HaveLen(1))
		Expect(accounts[0].Email).To(Equal("erin@example.com"))
	})

	It("projects grants", func() {
		var id uint64
		err := env.pool.QueryRow(env.ctx,
			"SELECT id FROM account WHERE username = 'ERIN'").Scan(&id)
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(env.ctx,
			"INSERT INTO account_access (id, gmlevel, realmid) VALUES ($1, 3, -1)", id)
		Expect(err).NotTo(HaveOccurred())

		grants, err := env.svc.Grants(env.ctx, id, []string{"gmlevel"})
		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(HaveLen(1))
		Expect(grants[0].GMLevel).To(Equal(uint8(3)))
	})
})
