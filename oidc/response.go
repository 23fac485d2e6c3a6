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

	"github.com/goccy/go-json"
)

// AuthScheme selects how an access token is meant to be presented to a
// resource. The zero value is not valid; callers default to SchemeBearer.
type AuthScheme string

const (
	SchemeBearer AuthScheme = "Bearer"
	SchemePoP    AuthScheme = "pop"
	SchemeSSH    AuthScheme = "ssh-cert"
)

// TokenResponse is the JSON body returned by the token endpoint, covering
// both the success and the error shape. Exactly one of the two shapes is
// populated; IsError tells them apart.
type TokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExtExpiresIn int64  `json:"ext_expires_in,omitempty"`
	RefreshIn    int64  `json:"refresh_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ClientInfo   string `json:"client_info,omitempty"`
	FamilyID     string `json:"foci,omitempty"`

	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	SubError         string `json:"suberror,omitempty"`
	ErrorCodes       []int  `json:"error_codes,omitempty"`
}

// ParseTokenResponse decodes a token endpoint response body.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	resp := &TokenResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("error parsing token response: %w", err)
	}
	return resp, nil
}

// IsError reports whether the response is the OAuth2 error shape.
func (r *TokenResponse) IsError() bool {
	return r.Error != ""
}

// EmptyClaims reports whether a claims request value carries no actual
// claims: the empty string and any JSON object with zero members count as
// empty. A value that fails to parse as a JSON object is treated as
// non-empty so that callers err on the side of a fresh token.
func EmptyClaims(claims string) bool {
	if claims == "" {
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(claims), &obj); err != nil {
		return false
	}
	return len(obj) == 0
}
