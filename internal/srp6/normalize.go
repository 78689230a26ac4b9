// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package srp6

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// ErrInvalidInput is returned when a string fails protocol normalization.
var ErrInvalidInput = errors.New("invalid input")

// Normalization constraints.
const (
	// MaxNormalizedLength is the protocol limit for usernames and passwords.
	MaxNormalizedLength = 16

	// MaxEmailLength bounds stored contact addresses.
	MaxEmailLength = 64
)

// Normalize applies the protocol's canonical string normalization: the
// input must be 1 to MaxNormalizedLength characters of graphic ASCII
// (no spaces, no control characters), and is case-folded to upper case.
func Normalize(s string) (string, error) {
	if s == "" {
		return "", oops.Code("SRP_INVALID_INPUT").
			Wrapf(ErrInvalidInput, "normalized string cannot be empty")
	}
	if len(s) > MaxNormalizedLength {
		return "", oops.Code("SRP_INVALID_INPUT").
			With("length", len(s)).
			Wrapf(ErrInvalidInput, "normalized string exceeds %d characters", MaxNormalizedLength)
	}
	if err := checkGraphicASCII(s); err != nil {
		return "", err
	}
	return strings.ToUpper(s), nil
}

// NormalizeEmail canonicalizes a contact address with the same character
// rules as Normalize but a longer length bound, lower-cased for storage
// comparison. It is not part of the credential derivation.
func NormalizeEmail(s string) (string, error) {
	if s == "" {
		return "", oops.Code("SRP_INVALID_INPUT").
			Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if len(s) > MaxEmailLength {
		return "", oops.Code("SRP_INVALID_INPUT").
			With("length", len(s)).
			Wrapf(ErrInvalidInput, "email exceeds %d characters", MaxEmailLength)
	}
	if err := checkGraphicASCII(s); err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

// checkGraphicASCII rejects any byte outside the graphic ASCII range
// 0x21..0x7E. Multi-byte runes fail byte-wise, which also rejects all
// non-ASCII input.
func checkGraphicASCII(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= 0x20 || c >= 0x7F {
			return oops.Code("SRP_INVALID_INPUT").
				With("position", i).
				Wrapf(ErrInvalidInput, "disallowed character in input")
		}
	}
	return nil
}
