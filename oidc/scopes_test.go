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

	"github.com/stretchr/testify/require"
)

func TestScopeSetNormalizesAndDeduplicates(t *testing.T) {
	s := NewScopeSet("OpenID", "profile", "openid", " User.Read ", "")
	require.Equal(t, []string{"openid", "profile", "user.read"}, s.Slice())
	require.Equal(t, "openid profile user.read", s.String())
	require.True(t, s.Contains("USER.READ"))
	require.False(t, s.Contains("email"))
}

func TestScopeSetFromString(t *testing.T) {
	s := ScopeSetFromString("openid  profile   user.read")
	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains("profile"))
}

func TestScopeSetContainsAll(t *testing.T) {
	cached := ScopeSetFromString("openid profile email user.read")
	require.True(t, cached.ContainsAll(NewScopeSet("user.read")))
	require.True(t, cached.ContainsAll(NewScopeSet("USER.READ", "openid")))
	require.True(t, cached.ContainsAll(NewScopeSet()))
	require.False(t, cached.ContainsAll(NewScopeSet("user.read", "mail.send")))
}

func TestScopeSetUnionPreservesOrder(t *testing.T) {
	a := NewScopeSet("user.read")
	b := NewScopeSet("openid", "user.read", "profile")
	union := a.Union(b)
	require.Equal(t, []string{"user.read", "openid", "profile"}, union.Slice())
	// Inputs stay untouched.
	require.Equal(t, []string{"user.read"}, a.Slice())
	require.Equal(t, 3, b.Len())
}

func TestDefaultOIDCScopes(t *testing.T) {
	defaults := DefaultOIDCScopes()
	for _, scope := range []string{"openid", "profile", "email", "offline_access"} {
		require.True(t, defaults.Contains(scope), scope)
	}
}
