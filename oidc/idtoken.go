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
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/silentflow/silentflow/util"
)

// IDTokenClaims is the decoded payload of an ID token. The decoding is
// purely structural: signature and issuer validation belong to the
// integration layer, so parsing must succeed for expired or unsigned
// tokens too.
type IDTokenClaims struct {
	Issuer            string
	Subject           string
	ObjectID          string // "oid", the local account id in vendor tenants
	TenantID          string // "tid"
	PreferredUsername string
	Name              string
	Nonce             string
	AuthTime          int64 // "auth_time", 0 when the claim is absent
	IssuedAt          time.Time
	Expiration        time.Time

	// All holds every claim of the payload, including the ones broken out
	// above, keyed by claim name.
	All map[string]any
}

// ParseIDTokenClaims decodes the claims of a compact ID token without
// verifying its signature or validating its lifetime.
func ParseIDTokenClaims(raw string) (*IDTokenClaims, error) {
	payload, err := util.DecodePayload([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("error parsing ID token: %w", err)
	}
	var all map[string]any
	if err := json.Unmarshal(payload, &all); err != nil {
		return nil, fmt.Errorf("error reading ID token claims: %w", err)
	}
	claims := &IDTokenClaims{
		Issuer:            stringClaim(all, "iss"),
		Subject:           stringClaim(all, "sub"),
		ObjectID:          stringClaim(all, "oid"),
		TenantID:          stringClaim(all, "tid"),
		PreferredUsername: stringClaim(all, "preferred_username"),
		Name:              stringClaim(all, "name"),
		Nonce:             stringClaim(all, "nonce"),
		AuthTime:          int64Claim(all, "auth_time"),
		All:               all,
	}
	if iat := int64Claim(all, "iat"); iat != 0 {
		claims.IssuedAt = time.Unix(iat, 0)
	}
	if exp := int64Claim(all, "exp"); exp != 0 {
		claims.Expiration = time.Unix(exp, 0)
	}
	return claims, nil
}

// UniqueID is the stable per-user identifier: "oid" when present, else "sub".
func (c *IDTokenClaims) UniqueID() string {
	if c.ObjectID != "" {
		return c.ObjectID
	}
	return c.Subject
}

// HasAuthTime reports whether the token carried an auth_time claim.
func (c *IDTokenClaims) HasAuthTime() bool {
	_, ok := c.All["auth_time"]
	return ok
}

func stringClaim(claims map[string]any, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}

func int64Claim(claims map[string]any, name string) int64 {
	switch v := claims[name].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case time.Time:
		return v.Unix()
	default:
		return 0
	}
}
