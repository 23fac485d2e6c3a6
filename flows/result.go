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
	"time"

	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/oidc"
)

// AuthResult is the composed outcome of a satisfied token request,
// whether it came from cache or from the wire.
type AuthResult struct {
	// UniqueID is the per-user identifier from the ID token (oid or sub).
	UniqueID string
	// TenantID is the tenant the token was issued in.
	TenantID string
	// Scopes actually covered by the access token.
	Scopes []string
	// Account is the cached account projection.
	Account cache.Account
	// IDToken is the raw ID token.
	IDToken string
	// IDTokenClaims are the decoded ID token claims.
	IDTokenClaims *oidc.IDTokenClaims
	// AccessToken is the access token secret.
	AccessToken string
	// ExpiresOn is when the access token stops being usable.
	ExpiresOn time.Time
	// TokenType is the authentication scheme of the access token.
	TokenType oidc.AuthScheme
	// State is always empty for silent and refresh flows.
	State string
	// FamilyID is the token family granted by the server, empty outside
	// family deployments.
	FamilyID string
	// CorrelationID echoes the request's correlation id.
	CorrelationID string
	// RequestID is the server's request id header, empty when the server
	// sent none.
	RequestID string
	// FromCache reports whether the result was satisfied without a
	// network call.
	FromCache bool
}

// resultFromRecords composes an AuthResult out of the cached credential
// chain.
func resultFromRecords(account cache.Account, idToken cache.IDTokenRecord, accessToken cache.AccessTokenRecord, claims *oidc.IDTokenClaims, correlationID string) *AuthResult {
	return &AuthResult{
		UniqueID:      claims.UniqueID(),
		TenantID:      claims.TenantID,
		Scopes:        oidc.ScopeSetFromString(accessToken.Target).Slice(),
		Account:       account,
		IDToken:       idToken.Secret,
		IDTokenClaims: claims,
		AccessToken:   accessToken.Secret,
		ExpiresOn:     accessToken.ExpiresOnTime(),
		TokenType:     accessToken.TokenType,
		State:         "",
		CorrelationID: correlationID,
		FromCache:     true,
	}
}

// resultFromSaved composes an AuthResult out of the records written for a
// fresh token response.
func resultFromSaved(saved *cache.SavedTokens, correlationID string) *AuthResult {
	result := &AuthResult{
		UniqueID:      saved.Claims.UniqueID(),
		TenantID:      saved.Claims.TenantID,
		Account:       saved.Account,
		IDTokenClaims: saved.Claims,
		State:         "",
		CorrelationID: correlationID,
	}
	if saved.IDToken != nil {
		result.IDToken = saved.IDToken.Secret
	}
	if saved.AccessToken != nil {
		result.AccessToken = saved.AccessToken.Secret
		result.ExpiresOn = saved.AccessToken.ExpiresOnTime()
		result.TokenType = saved.AccessToken.TokenType
		result.Scopes = oidc.ScopeSetFromString(saved.AccessToken.Target).Slice()
	}
	if saved.AppMetadata != nil {
		result.FamilyID = saved.AppMetadata.FamilyID
	}
	return result
}
