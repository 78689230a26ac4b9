// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package srp6 derives long-term SRP6 password credentials (salt and
// verifier) as used by the game client's zero-knowledge login handshake.
// Only credential issuance lives here; the interactive proof itself is
// handled by the realm gateway.
package srp6

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // G505: the protocol mandates SHA-1
	"math/big"

	"github.com/samber/oops"
)

// Protocol-fixed sizes in bytes.
const (
	SaltLength     = 32
	VerifierLength = 32
)

// largeSafePrime is the protocol's 256-bit modulus N, big-endian.
var largeSafePrime, _ = new(big.Int).SetString(
	"894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7", 16)

// generator is the protocol's g parameter.
var generator = big.NewInt(7)

// Credential is the derived long-term authentication material for one
// account. Username is the normalized form used for storage and for the
// verifier computation. The plaintext password is not retained.
type Credential struct {
	Username string
	Salt     []byte
	Verifier []byte
}

// DeriveCredential normalizes the username and password, draws a fresh
// random salt, and computes the password verifier. The same inputs produce
// a different credential on every call because of the salt draw.
func DeriveCredential(username, password string) (Credential, error) {
	user, err := Normalize(username)
	if err != nil {
		return Credential{}, err
	}
	pass, err := Normalize(password)
	if err != nil {
		return Credential{}, err
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, oops.Code("SRP_SALT_FAILED").Wrap(err)
	}

	return Credential{
		Username: user,
		Salt:     salt,
		Verifier: calculateVerifier(user, pass, salt),
	}, nil
}

// CalculateVerifier computes the verifier for already-normalized inputs and
// a fixed salt. Exposed for credential rotation and for tests that need a
// deterministic derivation.
func CalculateVerifier(username, password string, salt []byte) ([]byte, error) {
	user, err := Normalize(username)
	if err != nil {
		return nil, err
	}
	pass, err := Normalize(password)
	if err != nil {
		return nil, err
	}
	if len(salt) != SaltLength {
		return nil, oops.Code("SRP_INVALID_INPUT").
			With("salt_length", len(salt)).
			Wrap(ErrInvalidInput)
	}
	return calculateVerifier(user, pass, salt), nil
}

// calculateVerifier implements v = g^x mod N with
// x = SHA1(salt || SHA1(username ":" password)), little-endian.
func calculateVerifier(username, password string, salt []byte) []byte {
	inner := sha1.Sum([]byte(username + ":" + password)) //nolint:gosec

	h := sha1.New() //nolint:gosec
	h.Write(salt)
	h.Write(inner[:])
	xBytes := h.Sum(nil)

	// The protocol treats the digest as a little-endian integer.
	x := new(big.Int).SetBytes(reverse(xBytes))
	v := new(big.Int).Exp(generator, x, largeSafePrime)

	return toLittleEndianPadded(v, VerifierLength)
}

// toLittleEndianPadded encodes n as little-endian, zero-padded to size.
func toLittleEndianPadded(n *big.Int, size int) []byte {
	out := make([]byte, size)
	n.FillBytes(out)
	return reverse(out)
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
