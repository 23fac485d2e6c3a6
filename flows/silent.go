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

package flows

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/oidc"
	"github.com/silentflow/silentflow/telemetry"
)

const perfEventSilentFlow = "silentFlowClientAcquireCachedToken"

// SilentFlowClient decides whether a request can be satisfied from the
// credential cache and, through AcquireToken, falls back to the refresh
// grant when it cannot.
type SilentFlowClient struct {
	opts     ClientOptions
	refresh  *RefreshTokenClient
	renewals singleflight.Group
}

func NewSilentFlowClient(opts ClientOptions) (*SilentFlowClient, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	refresh, err := NewRefreshTokenClient(opts)
	if err != nil {
		return nil, err
	}
	return &SilentFlowClient{opts: opts, refresh: refresh}, nil
}

// AcquireToken is the silent entry point: it consults the cache first and
// blocks on a refresh grant only when the cached credential cannot satisfy
// the request. Freshness and interaction-required failures pass through
// untouched; they must not be papered over with a network refresh.
func (c *SilentFlowClient) AcquireToken(ctx context.Context, req *SilentRequest) (*AuthResult, error) {
	result, err := c.AcquireCachedToken(ctx, req)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrTokenRefreshRequired) {
		return nil, err
	}
	return c.refresh.AcquireTokenByRefreshToken(ctx, req)
}

// AcquireCachedToken evaluates the cached credential chain against the
// request. It returns the composed result on a hit, ErrTokenRefreshRequired
// when only a network refresh can satisfy the request, and a freshness or
// interaction-required error when the request cannot be satisfied silently
// at all.
func (c *SilentFlowClient) AcquireCachedToken(ctx context.Context, req *SilentRequest) (*AuthResult, error) {
	if err := validateSilentRequest(req); err != nil {
		return nil, err
	}
	correlationID := ensureCorrelationID(req.CorrelationID)
	c.opts.Performance.StartMeasurement(perfEventSilentFlow, correlationID)

	// max_age of zero demands fresh interactive proof no matter what the
	// cache holds.
	if req.MaxAge != nil && *req.MaxAge == 0 {
		return nil, ErrMaxAgeTranspired
	}
	if req.ForceRefresh {
		return nil, ErrTokenRefreshRequired
	}

	meta, err := c.refresh.resolveAuthority(ctx, req.Authority)
	if err != nil {
		return nil, err
	}
	environment := meta.Host()
	account, err := c.opts.Cache.Account(req.Account.HomeAccountID, environment, req.Account.Realm)
	if err != nil {
		return nil, ErrNoTokensFound
	}

	accessToken, err := c.opts.Cache.AccessToken(cache.AccessTokenQuery{
		HomeAccountID: account.HomeAccountID,
		Environment:   environment,
		ClientID:      c.opts.ClientID,
		Realm:         account.Realm,
		Scopes:        oidc.NewScopeSet(req.Scopes...),
		Scheme:        req.AuthScheme,
	})
	if err != nil {
		return nil, ErrTokenRefreshRequired
	}

	idToken, err := c.opts.Cache.IDToken(account.HomeAccountID, environment, c.opts.ClientID, account.Realm)
	if err != nil {
		return nil, ErrNoTokensFound
	}
	claims, err := oidc.ParseIDTokenClaims(idToken.Secret)
	if err != nil {
		return nil, ErrNoTokensFound
	}

	// A claims challenge invalidates the cached token unless the
	// deployment opted into claims-aware caching. An empty claims object
	// is the same as no claims at all.
	if !oidc.EmptyClaims(req.Claims) && !c.opts.ClaimsBasedCachingEnabled {
		return nil, ErrTokenRefreshRequired
	}

	now := c.opts.Clock()
	if req.MaxAge != nil {
		if !claims.HasAuthTime() {
			return nil, ErrAuthTimeNotFound
		}
		if now.Unix()-claims.AuthTime > int64(req.MaxAge.Seconds()) {
			return nil, ErrMaxAgeTranspired
		}
	}

	// Expired, or close enough to expiry that the skew tolerance eats the
	// remainder.
	if !now.Add(c.opts.ClockSkew).Before(accessToken.ExpiresOnTime()) {
		return nil, ErrTokenRefreshRequired
	}
	// A token cached in the future means the clock moved backward since
	// it was written; do not trust it.
	if accessToken.CachedAtTime().After(now) {
		return nil, ErrTokenRefreshRequired
	}

	c.opts.ServerTelemetry.IncrementCacheHits()
	c.opts.Performance.AddFields(map[string]any{telemetry.FieldCacheHit: true}, correlationID)

	if refreshOn := accessToken.RefreshOnTime(); !refreshOn.IsZero() && !refreshOn.After(now) {
		c.renewInBackground(req, accessToken.Key())
	}
	result := resultFromRecords(account, idToken, accessToken, claims, correlationID)
	return result, nil
}

// renewInBackground kicks off a non-blocking proactive renewal. Concurrent
// renewals for the same cached record collapse onto one network call; the
// outcome is only ever observed through its cache writes, and failures are
// logged and dropped.
func (c *SilentFlowClient) renewInBackground(req *SilentRequest, recordKey string) {
	var params map[string]string
	if len(req.TokenQueryParameters) > 0 {
		params = make(map[string]string, len(req.TokenQueryParameters))
		for name, value := range req.TokenQueryParameters {
			params[name] = value
		}
	}
	renewal := &SilentRequest{
		Account:              req.Account,
		Scopes:               append([]string(nil), req.Scopes...),
		Authority:            req.Authority,
		Claims:               req.Claims,
		AuthScheme:           req.AuthScheme,
		TokenQueryParameters: params,
	}
	go func() {
		_, err, _ := c.renewals.Do(recordKey, func() (any, error) {
			return c.refresh.AcquireTokenByRefreshToken(context.Background(), renewal)
		})
		if err != nil {
			logrus.WithError(err).Debug("proactive token renewal failed")
		}
	}()
}
