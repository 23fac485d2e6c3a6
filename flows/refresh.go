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
	"fmt"
	"net/url"
	"runtime"

	zoidc "github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/silentflow/silentflow/authority"
	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/oidc"
	"github.com/silentflow/silentflow/telemetry"
)

// Body parameter and header names of the refresh grant exchange.
const (
	paramClientID      = "client_id"
	paramScope         = "scope"
	paramRefreshToken  = "refresh_token"
	paramGrantType     = "grant_type"
	paramClaims        = "claims"
	paramClientInfo    = "client_info"
	paramClientSKU     = "x-client-SKU"
	paramClientVer     = "x-client-VER"
	paramClientOS      = "x-client-OS"
	paramClientCPU     = "x-client-CPU"
	paramAppName       = "x-app-name"
	paramAppVer        = "x-app-ver"
	paramLibCapability = "x-ms-lib-capability"

	headerCurrentTelemetry = "x-client-current-telemetry"
	headerLastTelemetry    = "x-client-last-telemetry"
	headerCCSCredential    = "X-AnchorMailbox"

	perfEventRefreshToken = "refreshTokenClientAcquireToken"
)

// RefreshTokenClient builds and executes the refresh grant protocol
// exchange, persisting the response through the credential cache. It never
// retries; retry policy belongs to the transport or the caller.
type RefreshTokenClient struct {
	opts ClientOptions
}

func NewRefreshTokenClient(opts ClientOptions) (*RefreshTokenClient, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return &RefreshTokenClient{opts: opts}, nil
}

// AcquireTokenByRefreshToken resolves the account's refresh token from the
// cache, preferring the family token when the client belongs to a token
// family, and redeems it. A family token the server no longer accepts is
// evicted and the exchange retried once with the client-specific token.
func (c *RefreshTokenClient) AcquireTokenByRefreshToken(ctx context.Context, req *SilentRequest) (*AuthResult, error) {
	if err := validateSilentRequest(req); err != nil {
		return nil, err
	}
	meta, err := c.resolveAuthority(ctx, req.Authority)
	if err != nil {
		return nil, err
	}
	account := *req.Account

	refreshToken, err := c.opts.Cache.RefreshToken(account.HomeAccountID, meta.Host(), c.opts.ClientID, true)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNoTokensFound
		}
		return nil, err
	}

	refreshRequest := c.refreshRequestFromSilent(req, refreshToken.Secret)
	result, err := c.AcquireToken(ctx, refreshRequest)
	if err == nil || refreshToken.FamilyID == "" {
		return result, err
	}

	// The server denying a family token means it is no longer usable by
	// this client; drop it so subsequent lookups fall back, and try the
	// client-specific token if one exists.
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.Code != serverErrorInvalidGrant {
		return nil, err
	}
	if removeErr := c.opts.Cache.RemoveCredential(refreshToken.Key()); removeErr != nil {
		return nil, removeErr
	}
	clientToken, lookupErr := c.opts.Cache.RefreshToken(account.HomeAccountID, meta.Host(), c.opts.ClientID, false)
	if lookupErr != nil || clientToken.Secret == refreshToken.Secret {
		return nil, err
	}
	refreshRequest = c.refreshRequestFromSilent(req, clientToken.Secret)
	return c.AcquireToken(ctx, refreshRequest)
}

// AcquireToken executes one refresh grant exchange with the given request,
// bypassing the cache on the way in. The response is still written back
// through the cache manager.
func (c *RefreshTokenClient) AcquireToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResult, error) {
	if err := validateRefreshRequest(req); err != nil {
		return nil, err
	}
	if req.RefreshToken == "" {
		return nil, ErrNoTokensFound
	}
	correlationID := ensureCorrelationID(req.CorrelationID)
	c.opts.Performance.StartMeasurement(perfEventRefreshToken, correlationID)

	meta, err := c.resolveAuthority(ctx, req.Authority)
	if err != nil {
		return nil, err
	}

	scopes := oidc.NewScopeSet(req.Scopes...).Union(oidc.NewScopeSet(c.opts.DefaultScopes...))
	endpoint, err := buildTokenURL(meta.TokenEndpoint, req.TokenQueryParameters)
	if err != nil {
		return nil, err
	}
	body := c.buildRequestBody(req, scopes)
	headers := c.buildHeaders(req, meta)

	resp, err := c.opts.Transport.Post(ctx, endpoint, headers, []byte(body.Encode()))
	if err != nil {
		return nil, err
	}
	tokenResp, err := oidc.ParseTokenResponse(resp.Body)
	if err != nil {
		// Proxies and gateways answer failures with HTML or empty bodies;
		// keep the status code instead of surfacing a decode error.
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &ServerError{
				StatusCode:    resp.StatusCode,
				Description:   string(resp.Body),
				CorrelationID: correlationID,
			}
		}
		return nil, err
	}
	if tokenResp.IsError() || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{
			StatusCode:    resp.StatusCode,
			Code:          tokenResp.Error,
			SubError:      tokenResp.SubError,
			Description:   tokenResp.ErrorDescription,
			CorrelationID: correlationID,
		}
	}

	// Observational only: the size of the refresh token we were handed
	// back, and the server's HTTP version marker when it sends one.
	c.opts.Performance.AddFields(map[string]any{
		telemetry.FieldRefreshTokenSize: len(tokenResp.RefreshToken),
		telemetry.FieldHTTPVerToken:     resp.Header(headerHTTPVer),
	}, correlationID)

	saved, err := c.opts.Cache.SaveTokenResponse(tokenResp, cache.SaveOptions{
		Environment:     meta.Host(),
		ClientID:        c.opts.ClientID,
		AuthorityType:   authorityTypeFor(meta.Mode),
		Scheme:          req.AuthScheme,
		RequestedScopes: scopes,
		Now:             c.opts.Clock(),
	})
	if err != nil {
		return nil, err
	}

	result := resultFromSaved(saved, correlationID)
	result.RequestID = resp.Header(headerRequestID)
	return result, nil
}

func (c *RefreshTokenClient) refreshRequestFromSilent(req *SilentRequest, secret string) *RefreshTokenRequest {
	return &RefreshTokenRequest{
		RefreshToken:         secret,
		Scopes:               req.Scopes,
		Authority:            req.Authority,
		Claims:               req.Claims,
		AuthScheme:           req.AuthScheme,
		CCSCredential:        ccsCredentialFor(req.Account),
		CorrelationID:        ensureCorrelationID(req.CorrelationID),
		TokenQueryParameters: req.TokenQueryParameters,
	}
}

func (c *RefreshTokenClient) resolveAuthority(ctx context.Context, override string) (authority.Metadata, error) {
	authorityURL := c.opts.Authority
	if override != "" {
		authorityURL = override
	}
	meta, err := c.opts.Resolver.Resolve(ctx, authorityURL)
	if err != nil {
		return authority.Metadata{}, fmt.Errorf("error resolving authority: %w", err)
	}
	return meta, nil
}

func (c *RefreshTokenClient) buildRequestBody(req *RefreshTokenRequest, scopes *oidc.ScopeSet) url.Values {
	body := url.Values{}
	body.Set(paramClientID, c.opts.ClientID)
	body.Set(paramScope, scopes.String())
	body.Set(paramRefreshToken, req.RefreshToken)
	body.Set(paramGrantType, string(zoidc.GrantTypeRefreshToken))
	body.Set(paramClientInfo, "1")
	if !oidc.EmptyClaims(req.Claims) {
		body.Set(paramClaims, req.Claims)
	}
	body.Set(paramClientSKU, libSKU)
	body.Set(paramClientVer, libVersion)
	body.Set(paramClientOS, runtime.GOOS)
	body.Set(paramClientCPU, runtime.GOARCH)
	body.Set(paramLibCapability, libCapability)
	if c.opts.AppName != "" {
		body.Set(paramAppName, c.opts.AppName)
	}
	if c.opts.AppVersion != "" {
		body.Set(paramAppVer, c.opts.AppVersion)
	}
	return body
}

// buildHeaders keeps the outgoing header set inside what a cross-origin
// CORS policy accepts without preflight: the form content type always,
// and the vendor telemetry and routing headers only against a vendor
// endpoint, whose policy admits them.
func (c *RefreshTokenClient) buildHeaders(req *RefreshTokenRequest, meta authority.Metadata) map[string]string {
	headers := map[string]string{
		headerContentTyp: "application/x-www-form-urlencoded;charset=utf-8",
	}
	if meta.Mode != authority.ModeAAD {
		return headers
	}
	if current := c.opts.ServerTelemetry.CurrentHeader(); current != "" {
		headers[headerCurrentTelemetry] = current
	}
	if last := c.opts.ServerTelemetry.LastHeader(); last != "" {
		headers[headerLastTelemetry] = last
	}
	if req.CCSCredential != "" {
		headers[headerCCSCredential] = req.CCSCredential
	}
	return headers
}

// buildTokenURL appends the caller's extra query parameters to the token
// endpoint. Entries with empty values are dropped rather than sent.
func buildTokenURL(endpoint string, extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return endpoint, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("error parsing token endpoint %q: %w", endpoint, err)
	}
	query := parsed.Query()
	for name, value := range extra {
		if value == "" {
			continue
		}
		query.Set(name, value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func authorityTypeFor(mode authority.Mode) string {
	if mode == authority.ModeAAD {
		return "MSSTS"
	}
	return "Generic"
}
