// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory

// AllRealms is the realm id sentinel meaning a grant applies everywhere.
const AllRealms int32 = -1

// AccessGrant is a privilege record scoped to one account and optionally
// one realm. Grants are provisioned storage-side; the directory only reads
// them.
type AccessGrant struct {
	ID      uint64  `db:"id" json:"id"`
	GMLevel uint8   `db:"gmlevel" json:"gmlevel"`
	RealmID int32   `db:"realmid" json:"realmid"`
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// GrantColumns is the canonical ordered attribute set of the account_access
// table.
var GrantColumns = []string{
	"id",
	"gmlevel",
	"realmid",
	"comment",
}

// RealmCharacterSummary is the denormalized per-realm character count for
// one account, with the realm's display name resolved by join.
type RealmCharacterSummary struct {
	RealmID   uint32 `db:"realmid" json:"realmid"`
	AccountID uint64 `db:"acctid" json:"acctid"`
	NumChars  uint8  `db:"numchars" json:"numchars"`
	RealmName string `db:"realmname" json:"realmname"`
}
