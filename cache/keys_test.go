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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silentflow/silentflow/oidc"
)

func TestAccountKeyIsCaseNormalized(t *testing.T) {
	a := Account{HomeAccountID: "UID.UTID", Environment: "Login.Contoso.Test", Realm: "TID"}
	b := Account{HomeAccountID: "uid.utid", Environment: "login.contoso.test", Realm: "tid"}
	require.Equal(t, a.Key(), b.Key())
	require.Equal(t, "uid.utid-login.contoso.test-tid", a.Key())
}

func TestAccessTokenKeyIsIdempotent(t *testing.T) {
	record := AccessTokenRecord{
		credentialBase: credentialBase{
			HomeAccountID:  "uid.utid",
			Environment:    "login.contoso.test",
			ClientID:       "Client-ID",
			CredentialType: CredentialAccessToken,
			Secret:         "secret",
		},
		Realm:     "tid",
		Target:    "openid profile User.Read",
		TokenType: oidc.SchemeBearer,
	}
	first := record.Key()
	require.Equal(t, first, record.Key())
	require.Equal(t, "uid.utid-login.contoso.test-accesstoken-client-id-tid-openid profile user.read", first)
}

func TestRefreshTokenKeyUsesFamilyWhenPresent(t *testing.T) {
	base := credentialBase{
		HomeAccountID:  "uid.utid",
		Environment:    "login.contoso.test",
		ClientID:       "client-id",
		CredentialType: CredentialRefreshToken,
	}
	clientToken := RefreshTokenRecord{credentialBase: base}
	familyToken := RefreshTokenRecord{credentialBase: base, FamilyID: "1"}
	require.NotEqual(t, clientToken.Key(), familyToken.Key())
	require.Contains(t, familyToken.Key(), "-1-")
	require.Contains(t, clientToken.Key(), "-client-id-")
}

func TestAppMetadataKey(t *testing.T) {
	meta := AppMetadata{ClientID: "Client-ID", Environment: "login.contoso.test", FamilyID: "1"}
	require.Equal(t, "appmetadata-login.contoso.test-client-id", meta.Key())
}

func TestIsAccessTokenKeyDistinguishesSchemeVariant(t *testing.T) {
	bearer := AccessTokenRecord{credentialBase: credentialBase{
		HomeAccountID: "uid.utid", Environment: "env", ClientID: "c",
		CredentialType: CredentialAccessToken,
	}, Realm: "tid", Target: "s"}
	pop := AccessTokenRecord{credentialBase: credentialBase{
		HomeAccountID: "uid.utid", Environment: "env", ClientID: "c",
		CredentialType: CredentialAccessTokenWithScheme,
	}, Realm: "tid", Target: "s"}
	require.True(t, isAccessTokenKey(bearer.Key()))
	require.True(t, isAccessTokenKey(pop.Key()))

	rt := RefreshTokenRecord{credentialBase: credentialBase{
		HomeAccountID: "uid.utid", Environment: "env", ClientID: "c",
		CredentialType: CredentialRefreshToken,
	}}
	require.False(t, isAccessTokenKey(rt.Key()))
}
