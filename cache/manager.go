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
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/silentflow/silentflow/oidc"
)

// ErrNotFound is returned by every lookup that finds no matching record.
var ErrNotFound = errors.New("credential cache: record not found")

// Manager is the sole owner of the keyed record store. It derives cache
// keys, serializes records to the storage medium, and implements the typed
// lookups the silent and refresh flows build on. It holds no network or
// decision logic.
type Manager struct {
	store Storage
}

func NewManager(store Storage) *Manager {
	return &Manager{store: store}
}

// AccessTokenQuery names the identifying fields of an access token lookup.
// Scopes match by superset: a cached record satisfies the query when its
// target covers every requested scope.
type AccessTokenQuery struct {
	HomeAccountID string
	Environment   string
	ClientID      string
	Realm         string
	Scopes        *oidc.ScopeSet
	Scheme        oidc.AuthScheme
}

// Account returns the account record for the identity, or ErrNotFound.
func (m *Manager) Account(homeAccountID, environment, realm string) (Account, error) {
	var account Account
	err := m.read(joinKey(homeAccountID, environment, realm), &account)
	return account, err
}

func (m *Manager) SetAccount(account Account) error {
	return m.write(account.Key(), account)
}

// RemoveAccount deletes the account record and every credential belonging
// to it.
func (m *Manager) RemoveAccount(account Account) error {
	for _, key := range m.store.Keys() {
		if keyBelongsTo(key, account.HomeAccountID, account.Environment) {
			if err := m.store.Remove(key); err != nil {
				return err
			}
		}
	}
	return m.store.Remove(account.Key())
}

// IDToken returns the cached ID token record for the account and client.
func (m *Manager) IDToken(homeAccountID, environment, clientID, realm string) (IDTokenRecord, error) {
	record := IDTokenRecord{credentialBase: credentialBase{CredentialType: CredentialIDToken}}
	key := joinKey(homeAccountID, environment, string(CredentialIDToken), clientID, realm, "")
	err := m.read(key, &record)
	return record, err
}

func (m *Manager) SetIDToken(record IDTokenRecord) error {
	return m.write(record.Key(), record)
}

// AccessToken finds a cached access token whose target scopes are a
// superset of the query's scopes. When several records match, a record
// whose credential type tag matches the requested authentication scheme
// wins over one that does not.
func (m *Manager) AccessToken(query AccessTokenQuery) (AccessTokenRecord, error) {
	wantType := CredentialAccessToken
	if query.Scheme != "" && query.Scheme != oidc.SchemeBearer {
		wantType = CredentialAccessTokenWithScheme
	}

	var fallback *AccessTokenRecord
	for _, key := range m.store.Keys() {
		if !isAccessTokenKey(key) || !keyBelongsTo(key, query.HomeAccountID, query.Environment) {
			continue
		}
		var record AccessTokenRecord
		if err := m.read(key, &record); err != nil {
			continue
		}
		if !equalsFold(record.ClientID, query.ClientID) || !equalsFold(record.Realm, query.Realm) {
			continue
		}
		if !oidc.ScopeSetFromString(record.Target).ContainsAll(query.Scopes) {
			continue
		}
		if record.CredentialType == wantType {
			return record, nil
		}
		if fallback == nil {
			r := record
			fallback = &r
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return AccessTokenRecord{}, ErrNotFound
}

func (m *Manager) SetAccessToken(record AccessTokenRecord) error {
	return m.write(record.Key(), record)
}

// RefreshToken returns the refresh token for the account and client. When
// familyOK is set and the client's app metadata names a token family, the
// family-tagged token is preferred and the client-specific token is the
// fallback.
func (m *Manager) RefreshToken(homeAccountID, environment, clientID string, familyOK bool) (RefreshTokenRecord, error) {
	if familyOK {
		if meta, err := m.AppMetadata(environment, clientID); err == nil && meta.FamilyID != "" {
			familyKey := joinKey(homeAccountID, environment, string(CredentialRefreshToken), meta.FamilyID, "", "")
			var record RefreshTokenRecord
			if err := m.read(familyKey, &record); err == nil {
				return record, nil
			}
		}
	}
	key := joinKey(homeAccountID, environment, string(CredentialRefreshToken), clientID, "", "")
	var record RefreshTokenRecord
	err := m.read(key, &record)
	return record, err
}

func (m *Manager) SetRefreshToken(record RefreshTokenRecord) error {
	return m.write(record.Key(), record)
}

// AppMetadata returns the family-membership record for a client.
func (m *Manager) AppMetadata(environment, clientID string) (AppMetadata, error) {
	var meta AppMetadata
	err := m.read(joinKey(appMetadataPrefix, environment, clientID), &meta)
	return meta, err
}

func (m *Manager) SetAppMetadata(meta AppMetadata) error {
	return m.write(meta.Key(), meta)
}

// RemoveCredential deletes a credential record by its derived key.
func (m *Manager) RemoveCredential(key string) error {
	return m.store.Remove(key)
}

// SaveOptions carries the request-side context a token response is saved
// under.
type SaveOptions struct {
	Environment     string
	ClientID        string
	AuthorityType   string
	Scheme          oidc.AuthScheme
	RequestedScopes *oidc.ScopeSet
	Now             time.Time
}

// SavedTokens is the set of records written for one token response.
type SavedTokens struct {
	Account      Account
	IDToken      *IDTokenRecord
	AccessToken  *AccessTokenRecord
	RefreshToken *RefreshTokenRecord
	AppMetadata  *AppMetadata
	Claims       *oidc.IDTokenClaims
}

// SaveTokenResponse is the single write path for token endpoint responses:
// it derives the account identity, builds the credential records, and
// persists them all. Writes are idempotent overwrites, so replaying the
// same response converges on the same cache state.
func (m *Manager) SaveTokenResponse(resp *oidc.TokenResponse, opts SaveOptions) (*SavedTokens, error) {
	if resp.IsError() {
		return nil, fmt.Errorf("refusing to cache an error response: %s", resp.Error)
	}
	claims, err := oidc.ParseIDTokenClaims(resp.IDToken)
	if err != nil {
		return nil, err
	}

	homeAccountID := claims.Subject
	if resp.ClientInfo != "" {
		info, err := oidc.ParseClientInfo(resp.ClientInfo)
		if err != nil {
			return nil, err
		}
		if id := info.HomeAccountID(); id != "" {
			homeAccountID = id
		}
	}
	realm := claims.TenantID

	saved := &SavedTokens{Claims: claims}
	saved.Account = Account{
		HomeAccountID:  homeAccountID,
		Environment:    opts.Environment,
		Realm:          realm,
		LocalAccountID: claims.UniqueID(),
		Username:       claims.PreferredUsername,
		Name:           claims.Name,
		AuthorityType:  opts.AuthorityType,
	}
	if err := m.SetAccount(saved.Account); err != nil {
		return nil, err
	}

	idToken := IDTokenRecord{
		credentialBase: credentialBase{
			HomeAccountID:  homeAccountID,
			Environment:    opts.Environment,
			ClientID:       opts.ClientID,
			CredentialType: CredentialIDToken,
			Secret:         resp.IDToken,
		},
		Realm: realm,
	}
	if err := m.SetIDToken(idToken); err != nil {
		return nil, err
	}
	saved.IDToken = &idToken

	if resp.AccessToken != "" {
		credType := CredentialAccessToken
		scheme := opts.Scheme
		if scheme == "" {
			scheme = oidc.SchemeBearer
		}
		if scheme != oidc.SchemeBearer {
			credType = CredentialAccessTokenWithScheme
		}
		target := opts.RequestedScopes
		if responseScopes := oidc.ScopeSetFromString(resp.Scope); responseScopes.Len() > 0 {
			// The server's granted scopes are authoritative over the
			// requested ones.
			target = responseScopes
		}
		accessToken := AccessTokenRecord{
			credentialBase: credentialBase{
				HomeAccountID:  homeAccountID,
				Environment:    opts.Environment,
				ClientID:       opts.ClientID,
				CredentialType: credType,
				Secret:         resp.AccessToken,
			},
			Realm:     realm,
			Target:    target.String(),
			CachedAt:  EpochString(opts.Now),
			ExpiresOn: EpochString(opts.Now.Add(time.Duration(resp.ExpiresIn) * time.Second)),
			TokenType: scheme,
		}
		if resp.RefreshIn > 0 && resp.RefreshIn < resp.ExpiresIn {
			accessToken.RefreshOn = EpochString(opts.Now.Add(time.Duration(resp.RefreshIn) * time.Second))
		}
		if err := m.SetAccessToken(accessToken); err != nil {
			return nil, err
		}
		saved.AccessToken = &accessToken
	}

	if resp.RefreshToken != "" {
		refreshToken := RefreshTokenRecord{
			credentialBase: credentialBase{
				HomeAccountID:  homeAccountID,
				Environment:    opts.Environment,
				ClientID:       opts.ClientID,
				CredentialType: CredentialRefreshToken,
				Secret:         resp.RefreshToken,
			},
			FamilyID: resp.FamilyID,
		}
		if err := m.SetRefreshToken(refreshToken); err != nil {
			return nil, err
		}
		saved.RefreshToken = &refreshToken
	}

	if resp.FamilyID != "" {
		meta := AppMetadata{
			ClientID:    opts.ClientID,
			Environment: opts.Environment,
			FamilyID:    resp.FamilyID,
		}
		if err := m.SetAppMetadata(meta); err != nil {
			return nil, err
		}
		saved.AppMetadata = &meta
	}

	return saved, nil
}

func (m *Manager) read(key string, out any) error {
	raw, ok := m.store.Get(key)
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error decoding cache record %q: %w", key, err)
	}
	return nil
}

func (m *Manager) write(key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error encoding cache record %q: %w", key, err)
	}
	return m.store.Set(key, raw)
}
