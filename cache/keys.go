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

import "strings"

const (
	keySeparator      = "-"
	appMetadataPrefix = "appmetadata"
)

// joinKey derives a composite cache key from its identifying components.
// Components are lower-cased so that differently-cased inputs converge on
// one key; empty components stay in place so that positions are stable
// across record kinds.
func joinKey(components ...string) string {
	lowered := make([]string, len(components))
	for i, c := range components {
		lowered[i] = strings.ToLower(c)
	}
	return strings.Join(lowered, keySeparator)
}

// isAccessTokenKey reports whether a derived key belongs to an access
// token record of either scheme. Used when scanning for scope matches.
func isAccessTokenKey(key string) bool {
	return strings.Contains(key, keySeparator+strings.ToLower(string(CredentialAccessToken))+keySeparator) ||
		strings.Contains(key, keySeparator+strings.ToLower(string(CredentialAccessTokenWithScheme))+keySeparator)
}

// keyBelongsTo reports whether a derived key was issued for the given
// account identity.
func keyBelongsTo(key, homeAccountID, environment string) bool {
	return strings.HasPrefix(key, joinKey(homeAccountID, environment)+keySeparator)
}

func equalsFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
