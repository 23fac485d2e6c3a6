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

package mocks

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/silentflow/silentflow/flows"
	"github.com/silentflow/silentflow/oidc"
)

// Identity defaults used by the builders.
const (
	TestUID      = "test-uid"
	TestUTID     = "test-utid"
	TestTenantID = "test-utid"
	TestObjectID = "test-oid"
	TestUsername = "user@contoso.test"
	TestIssuer   = "https://login.contoso.test/test-utid/v2.0"
)

var mockSigningKey = []byte("mock-id-token-signing-key")

// DefaultIDTokenClaims builds a fresh claims map for a plausible ID token.
// Callers mutate their own copy, never a shared fixture.
func DefaultIDTokenClaims() map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":                TestIssuer,
		"sub":                "test-sub",
		"oid":                TestObjectID,
		"tid":                TestTenantID,
		"preferred_username": TestUsername,
		"name":               "Test User",
		"aud":                "test-client-id",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"auth_time":          now.Unix(),
	}
}

// NewIDToken signs a compact ID token over the given claims. The signature
// is an HMAC over a fixed key; the flows never verify it, they only decode.
func NewIDToken(claims map[string]any) (string, error) {
	tok := jwt.New()
	for name, value := range claims {
		if err := tok.Set(name, value); err != nil {
			return "", fmt.Errorf("error setting claim %q: %w", name, err)
		}
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, mockSigningKey))
	if err != nil {
		return "", fmt.Errorf("error signing mock ID token: %w", err)
	}
	return string(signed), nil
}

// TokenResponseOptions tune one generated token response body. The zero
// value yields a complete, valid response.
type TokenResponseOptions struct {
	// IDTokenClaims overrides DefaultIDTokenClaims when non-nil.
	IDTokenClaims map[string]any
	// UID and UTID feed the client_info parameter. Defaults: TestUID,
	// TestUTID.
	UID  string
	UTID string
	// AccessToken defaults to "mock-access-token".
	AccessToken string
	// RefreshToken defaults to "mock-refresh-token"; OmitRefreshToken
	// suppresses the member entirely.
	RefreshToken     string
	OmitRefreshToken bool
	// Scope defaults to "openid profile email".
	Scope string
	// ExpiresIn defaults to 3600 seconds. RefreshIn defaults to absent.
	ExpiresIn int64
	RefreshIn int64
	// FamilyID populates the foci member when non-empty.
	FamilyID string
}

// NewTokenResponseBody renders a fresh token endpoint response body.
func NewTokenResponseBody(opts TokenResponseOptions) ([]byte, error) {
	claims := opts.IDTokenClaims
	if claims == nil {
		claims = DefaultIDTokenClaims()
	}
	idToken, err := NewIDToken(claims)
	if err != nil {
		return nil, err
	}

	uid, utid := opts.UID, opts.UTID
	if uid == "" {
		uid = TestUID
	}
	if utid == "" {
		utid = TestUTID
	}
	clientInfo, err := (&oidc.ClientInfo{UID: uid, UTID: utid}).Encode()
	if err != nil {
		return nil, err
	}

	resp := oidc.TokenResponse{
		AccessToken:  opts.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    opts.ExpiresIn,
		RefreshIn:    opts.RefreshIn,
		Scope:        opts.Scope,
		RefreshToken: opts.RefreshToken,
		IDToken:      idToken,
		ClientInfo:   clientInfo,
		FamilyID:     opts.FamilyID,
	}
	if resp.AccessToken == "" {
		resp.AccessToken = "mock-access-token"
	}
	if resp.RefreshToken == "" && !opts.OmitRefreshToken {
		resp.RefreshToken = "mock-refresh-token"
	}
	if opts.OmitRefreshToken {
		resp.RefreshToken = ""
	}
	if resp.Scope == "" {
		resp.Scope = "openid profile email"
	}
	if resp.ExpiresIn == 0 {
		resp.ExpiresIn = 3600
	}
	return json.Marshal(resp)
}

// OKResponse wraps a body in a 200 transport response with the given
// headers.
func OKResponse(body []byte, headers map[string]string) *flows.Response {
	if headers == nil {
		headers = map[string]string{}
	}
	return &flows.Response{StatusCode: 200, Headers: headers, Body: body}
}

// ErrorResponseBody renders an OAuth2 error body.
func ErrorResponseBody(errorCode, description, subError string) []byte {
	body, _ := json.Marshal(oidc.TokenResponse{
		Error:            errorCode,
		ErrorDescription: description,
		SubError:         subError,
	})
	return body
}
