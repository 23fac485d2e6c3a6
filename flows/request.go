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

package flows

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/oidc"
)

// SilentRequest asks for a token without user interaction: from cache if
// possible, via the refresh grant otherwise.
type SilentRequest struct {
	// Account is the signed-in identity the token is requested for.
	Account *cache.Account
	// Scopes the token must cover. Must be non-empty.
	Scopes []string
	// Authority overrides the client's default authority when non-empty.
	Authority string
	// Claims is a JSON claims request. An empty object is equivalent to
	// no claims at all.
	Claims string
	// AuthScheme selects Bearer, PoP, or SSH certificate tokens. Empty
	// means Bearer.
	AuthScheme oidc.AuthScheme
	// ForceRefresh skips the cached access token outright.
	ForceRefresh bool
	// MaxAge, when set, bounds the age of the original authentication.
	// A zero MaxAge always fails with max_age_transpired.
	MaxAge *time.Duration
	// CorrelationID ties telemetry together; generated when empty.
	CorrelationID string
	// TokenQueryParameters are appended verbatim to the token endpoint
	// URL. Entries with empty values are dropped.
	TokenQueryParameters map[string]string
}

// RefreshTokenRequest drives one refresh grant exchange. It is built
// internally from a SilentRequest, or directly by callers that already
// hold a refresh token and know a refresh is required.
type RefreshTokenRequest struct {
	// RefreshToken is the refresh token secret to redeem.
	RefreshToken string
	// Scopes the new access token must cover. Must be non-empty.
	Scopes []string
	// Authority overrides the client's default authority when non-empty.
	Authority string
	// Claims is a JSON claims request, sent on the wire only when it
	// names at least one claim.
	Claims string
	// AuthScheme tags the credential type of the cached access token.
	AuthScheme oidc.AuthScheme
	// CCSCredential is the cross-site routing hint derived from the
	// account's home account id, e.g. "oid:uid@utid".
	CCSCredential string
	// CorrelationID ties telemetry together; generated when empty.
	CorrelationID string
	// TokenQueryParameters are appended verbatim to the token endpoint
	// URL. Entries with empty values are dropped.
	TokenQueryParameters map[string]string
}

// validateSilentRequest applies the shared preconditions: the request and
// its scope list must be present, and the account must be named.
func validateSilentRequest(req *SilentRequest) error {
	if req == nil {
		return ErrTokenRequestEmpty
	}
	if len(req.Scopes) == 0 {
		return ErrEmptyInputScopes
	}
	if req.Account == nil {
		return ErrNoAccountInSilentRequest
	}
	return nil
}

func validateRefreshRequest(req *RefreshTokenRequest) error {
	if req == nil {
		return ErrTokenRequestEmpty
	}
	if len(req.Scopes) == 0 {
		return ErrEmptyInputScopes
	}
	return nil
}

// ensureCorrelationID returns the request's correlation id, minting one
// when the caller did not supply any.
func ensureCorrelationID(correlationID string) string {
	if correlationID != "" {
		return correlationID
	}
	return uuid.NewString()
}

// ccsCredentialFor derives the cross-site credential hint from a home
// account id of the form "uid.utid".
func ccsCredentialFor(account *cache.Account) string {
	if account == nil || account.HomeAccountID == "" {
		return ""
	}
	parts := strings.SplitN(account.HomeAccountID, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return "oid:" + parts[0] + "@" + parts[1]
}
