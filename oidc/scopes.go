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
	"strings"

	zoidc "github.com/zitadel/oidc/v3/pkg/oidc"
)

// ScopeSet is an order-preserving, case-insensitive set of OAuth2 scopes.
// Scopes are normalized to lower case on insertion; the first-seen order is
// kept because the space-joined form is written into cache keys and wire
// requests, where ordering must be deterministic.
type ScopeSet struct {
	scopes []string
	index  map[string]struct{}
}

// NewScopeSet builds a ScopeSet from individual scope values. Empty strings
// and duplicates are dropped.
func NewScopeSet(scopes ...string) *ScopeSet {
	s := &ScopeSet{index: make(map[string]struct{}, len(scopes))}
	for _, scope := range scopes {
		s.Add(scope)
	}
	return s
}

// ScopeSetFromString parses a space-joined scope string, e.g. the `target`
// field of a cached access token or the `scope` member of a token response.
func ScopeSetFromString(joined string) *ScopeSet {
	return NewScopeSet(strings.Fields(joined)...)
}

// DefaultOIDCScopes returns the scopes every token request must carry
// regardless of what the caller asked for.
func DefaultOIDCScopes() *ScopeSet {
	return NewScopeSet(
		string(zoidc.ScopeOpenID),
		string(zoidc.ScopeProfile),
		string(zoidc.ScopeEmail),
		string(zoidc.ScopeOfflineAccess),
	)
}

func (s *ScopeSet) Add(scope string) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return
	}
	if _, ok := s.index[scope]; ok {
		return
	}
	s.index[scope] = struct{}{}
	s.scopes = append(s.scopes, scope)
}

func (s *ScopeSet) Contains(scope string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(scope))]
	return ok
}

// ContainsAll reports whether s is a superset of other. An empty other is
// contained in every set.
func (s *ScopeSet) ContainsAll(other *ScopeSet) bool {
	for _, scope := range other.scopes {
		if _, ok := s.index[scope]; !ok {
			return false
		}
	}
	return true
}

// Union returns a new set holding s's scopes followed by any scopes of
// other not already present. Neither input is mutated.
func (s *ScopeSet) Union(other *ScopeSet) *ScopeSet {
	out := NewScopeSet(s.scopes...)
	for _, scope := range other.scopes {
		out.Add(scope)
	}
	return out
}

// Slice returns the scopes in insertion order. The returned slice is a copy.
func (s *ScopeSet) Slice() []string {
	out := make([]string, len(s.scopes))
	copy(out, s.scopes)
	return out
}

// String renders the set as the space-joined wire form.
func (s *ScopeSet) String() string {
	return strings.Join(s.scopes, " ")
}

func (s *ScopeSet) Len() int {
	return len(s.scopes)
}
