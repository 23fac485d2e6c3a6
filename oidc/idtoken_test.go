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

package oidc

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	tok := jwt.New()
	for name, value := range claims {
		require.NoError(t, tok.Set(name, value))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-key")))
	require.NoError(t, err)
	return string(signed)
}

func TestParseIDTokenClaims(t *testing.T) {
	authTime := time.Now().Add(-10 * time.Minute).Unix()
	raw := signTestToken(t, map[string]any{
		"iss":                "https://login.contoso.test/tid/v2.0",
		"sub":                "sub-value",
		"oid":                "oid-value",
		"tid":                "tid-value",
		"preferred_username": "user@contoso.test",
		"name":               "Test User",
		"auth_time":          authTime,
		"exp":                time.Now().Add(time.Hour).Unix(),
	})

	claims, err := ParseIDTokenClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "sub-value", claims.Subject)
	require.Equal(t, "oid-value", claims.ObjectID)
	require.Equal(t, "oid-value", claims.UniqueID())
	require.Equal(t, "tid-value", claims.TenantID)
	require.Equal(t, "user@contoso.test", claims.PreferredUsername)
	require.True(t, claims.HasAuthTime())
	require.Equal(t, authTime, claims.AuthTime)
	require.Contains(t, claims.All, "name")
}

func TestParseIDTokenClaimsExpiredTokenStillParses(t *testing.T) {
	raw := signTestToken(t, map[string]any{
		"sub": "sub-value",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	claims, err := ParseIDTokenClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "sub-value", claims.Subject)
	require.False(t, claims.HasAuthTime())
	require.Equal(t, int64(0), claims.AuthTime)
	// No oid claim, so the unique id falls back to sub.
	require.Equal(t, "sub-value", claims.UniqueID())
}

func TestParseIDTokenClaimsRejectsGarbage(t *testing.T) {
	_, err := ParseIDTokenClaims("not-a-jwt")
	require.Error(t, err)

	// Right segment count, but the payload is not base64url.
	_, err = ParseIDTokenClaims("aGVhZGVy.!!!.c2ln")
	require.Error(t, err)

	// Payload decodes but is not a JSON object.
	_, err = ParseIDTokenClaims("aGVhZGVy.bm90LWpzb24.c2ln")
	require.Error(t, err)
}
