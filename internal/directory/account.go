// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package directory defines the account-directory entities, the
// field-projection planner, and the service facade over the backing store.
package directory

import "time"

// DefaultExpansion is the expansion tier assigned to new accounts.
const DefaultExpansion = 2

// Account is one identity, credential, and status record. Instances
// returned by the store are independent copies; mutating one never affects
// stored state.
type Account struct {
	ID            uint64     `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	Salt          []byte     `db:"salt" json:"salt,omitempty"`
	Verifier      []byte     `db:"verifier" json:"verifier,omitempty"`
	SessionKey    []byte     `db:"session_key" json:"session_key,omitempty"`
	TOTPSecret    []byte     `db:"totp_secret" json:"totp_secret,omitempty"`
	Email         string     `db:"email" json:"email"`
	RegMail       string     `db:"reg_mail" json:"reg_mail"`
	JoinDate      time.Time  `db:"joindate" json:"joindate"`
	LastIP        string     `db:"last_ip" json:"last_ip"`
	LastAttemptIP string     `db:"last_attempt_ip" json:"last_attempt_ip"`
	FailedLogins  uint32     `db:"failed_logins" json:"failed_logins"`
	Locked        uint8      `db:"locked" json:"locked"`
	LockCountry   string     `db:"lock_country" json:"lock_country"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	Online        uint8      `db:"online" json:"online"`
	Expansion     uint8      `db:"expansion" json:"expansion"`
	MuteTime      int64      `db:"mutetime" json:"mutetime"`
	MuteReason    string     `db:"mutereason" json:"mutereason"`
	MuteBy        string     `db:"muteby" json:"muteby"`
	Locale        uint8      `db:"locale" json:"locale"`
	OS            string     `db:"os" json:"os"`
	Recruiter     uint32     `db:"recruiter" json:"recruiter"`
	TotalTime     uint32     `db:"totaltime" json:"totaltime"`
}

// AccountColumns is the canonical ordered attribute set of the account
// table. The projection planner only ever emits names from this list, which
// is what keeps caller-requested field names out of query text.
var AccountColumns = []string{
	"id",
	"username",
	"salt",
	"verifier",
	"session_key",
	"totp_secret",
	"email",
	"reg_mail",
	"joindate",
	"last_ip",
	"last_attempt_ip",
	"failed_logins",
	"locked",
	"lock_country",
	"last_login",
	"online",
	"expansion",
	"mutetime",
	"mutereason",
	"muteby",
	"locale",
	"os",
	"recruiter",
	"totaltime",
}
