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

	"github.com/silentflow/silentflow/util"
)

// ClientInfo is the decoded `client_info` parameter returned by vendor
// token endpoints: a base64url JSON object naming the user (uid) and the
// home tenant (utid).
type ClientInfo struct {
	UID  string `json:"uid"`
	UTID string `json:"utid"`
}

// ParseClientInfo decodes a base64url-encoded client_info value.
func ParseClientInfo(encoded string) (*ClientInfo, error) {
	decoded, err := util.Base64DecodeForJWT([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("error decoding client_info: %w", err)
	}
	info := &ClientInfo{}
	if err := json.Unmarshal(decoded, info); err != nil {
		return nil, fmt.Errorf("error parsing client_info: %w", err)
	}
	return info, nil
}

// HomeAccountID joins uid and utid into the composite account identifier
// used throughout the credential cache.
func (c *ClientInfo) HomeAccountID() string {
	if c.UID == "" && c.UTID == "" {
		return ""
	}
	return c.UID + "." + c.UTID
}

// Encode renders the client_info value back to its wire encoding. Used by
// tests and by integrations that synthesize responses.
func (c *ClientInfo) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(util.Base64EncodeForJWT(raw)), nil
}
