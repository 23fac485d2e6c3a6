// Copyright 2025 SilentFlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"strconv"
	"time"

	"github.com/silentflow/silentflow/oidc"
)

// CredentialType tags the closed set of credential record kinds. Key
// derivation and the access-token matcher switch exhaustively on it.
type CredentialType string

const (
	CredentialIDToken               CredentialType = "IdToken"
	CredentialAccessToken           CredentialType = "AccessToken"
	CredentialAccessTokenWithScheme CredentialType = "AccessToken_With_AuthScheme"
	CredentialRefreshToken          CredentialType = "RefreshToken"
)

// Account identifies a signed-in identity within an environment and tenant.
// Accounts are written wholesale on a successful token response and never
// partially updated.
type Account struct {
	HomeAccountID  string `json:"home_account_id"`
	Environment    string `json:"environment"`
	Realm          string `json:"realm"`
	LocalAccountID string `json:"local_account_id"`
	Username       string `json:"username"`
	Name           string `json:"name,omitempty"`
	AuthorityType  string `json:"authority_type"`
}

// Key derives the account's cache key. Identical accounts always derive
// the identical key, which is what makes writes idempotent overwrites.
func (a Account) Key() string {
	return joinKey(a.HomeAccountID, a.Environment, a.Realm)
}

// credentialBase carries the fields shared by every credential record.
type credentialBase struct {
	HomeAccountID  string         `json:"home_account_id"`
	Environment    string         `json:"environment"`
	ClientID       string         `json:"client_id"`
	CredentialType CredentialType `json:"credential_type"`
	Secret         string         `json:"secret"`
}

// IDTokenRecord caches a raw ID token for an account/client/tenant.
type IDTokenRecord struct {
	credentialBase
	Realm string `json:"realm"`
}

func (r IDTokenRecord) Key() string {
	return joinKey(r.HomeAccountID, r.Environment, string(r.CredentialType), r.ClientID, r.Realm, "")
}

// AccessTokenRecord caches an access token together with the scope string
// it was granted for and its lifetime markers. All timestamps are
// string-encoded epoch seconds, matching the persisted schema.
type AccessTokenRecord struct {
	credentialBase
	Realm     string          `json:"realm"`
	Target    string          `json:"target"`
	CachedAt  string          `json:"cached_at"`
	ExpiresOn string          `json:"expires_on"`
	RefreshOn string          `json:"refresh_on,omitempty"`
	TokenType oidc.AuthScheme `json:"token_type"`
}

func (r AccessTokenRecord) Key() string {
	return joinKey(r.HomeAccountID, r.Environment, string(r.CredentialType), r.ClientID, r.Realm, r.Target)
}

// CachedAtTime decodes the cached_at marker; the zero time when unset or
// malformed.
func (r AccessTokenRecord) CachedAtTime() time.Time {
	return epochTime(r.CachedAt)
}

// ExpiresOnTime decodes the expires_on marker.
func (r AccessTokenRecord) ExpiresOnTime() time.Time {
	return epochTime(r.ExpiresOn)
}

// RefreshOnTime decodes the refresh_on marker; the zero time when the
// record carries no proactive-renewal threshold.
func (r AccessTokenRecord) RefreshOnTime() time.Time {
	return epochTime(r.RefreshOn)
}

// RefreshTokenRecord caches a refresh token. Refresh tokens are
// cross-tenant, so the record has no realm; a non-empty FamilyID marks a
// token usable by every client in that family.
type RefreshTokenRecord struct {
	credentialBase
	FamilyID string `json:"family_id,omitempty"`
}

func (r RefreshTokenRecord) Key() string {
	// Family tokens are keyed by family rather than client so that all
	// family members derive the same key.
	clientComponent := r.ClientID
	if r.FamilyID != "" {
		clientComponent = r.FamilyID
	}
	return joinKey(r.HomeAccountID, r.Environment, string(r.CredentialType), clientComponent, "", "")
}

// AppMetadata records whether a client participates in a token family. It
// is written once from the server's foci flag and read on every
// family-aware refresh token lookup.
type AppMetadata struct {
	ClientID    string `json:"client_id"`
	Environment string `json:"environment"`
	FamilyID    string `json:"family_id,omitempty"`
}

func (m AppMetadata) Key() string {
	return joinKey(appMetadataPrefix, m.Environment, m.ClientID)
}

func epochTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// EpochString encodes a time as string epoch seconds, the persisted form
// of every lifetime marker.
func EpochString(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
