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

package flows_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silentflow/silentflow/authority"
	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/flows"
	"github.com/silentflow/silentflow/flows/mocks"
	"github.com/silentflow/silentflow/oidc"
	"github.com/silentflow/silentflow/telemetry"
)

const (
	testClientID      = "test-client-id"
	testAuthority     = "https://login.contoso.test/test-utid"
	testTokenEndpoint = testAuthority + "/oauth2/v2.0/token"
	testEnvironment   = "login.contoso.test"
	testHomeAccountID = mocks.TestUID + "." + mocks.TestUTID
	testRealm         = mocks.TestTenantID
)

// testEnv wires a silent/refresh client pair against in-memory fakes at
// every collaborator seam.
type testEnv struct {
	store     *cache.InMemory
	manager   *cache.Manager
	transport *mocks.Transport
	perf      *telemetry.InMemoryPerformance
	server    *telemetry.InMemoryServer
	now       time.Time
	opts      flows.ClientOptions
}

func newTestEnv(t *testing.T, mode authority.Mode) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     cache.NewInMemory(),
		transport: mocks.NewTransport(nil),
		perf:      telemetry.NewInMemoryPerformance(),
		server:    telemetry.NewInMemoryServer(),
		now:       time.Unix(1_700_000_000, 0),
	}
	env.manager = cache.NewManager(env.store)
	env.opts = flows.ClientOptions{
		ClientID:  testClientID,
		Authority: testAuthority,
		Resolver: authority.NewStatic(authority.Metadata{
			Authority:     testAuthority,
			TokenEndpoint: testTokenEndpoint,
			Mode:          mode,
		}),
		Transport:       env.transport,
		Cache:           env.manager,
		Performance:     env.perf,
		ServerTelemetry: env.server,
		AppName:         "silentflow-tests",
		AppVersion:      "1.2.3",
		Clock:           func() time.Time { return env.now },
	}
	return env
}

func (e *testEnv) silentClient(t *testing.T) *flows.SilentFlowClient {
	t.Helper()
	client, err := flows.NewSilentFlowClient(e.opts)
	require.NoError(t, err)
	return client
}

func (e *testEnv) refreshClient(t *testing.T) *flows.RefreshTokenClient {
	t.Helper()
	client, err := flows.NewRefreshTokenClient(e.opts)
	require.NoError(t, err)
	return client
}

// seed writes a full credential chain through the manager's real write
// path. cachedAt controls the access token's lifetime markers relative to
// env.now.
func (e *testEnv) seed(t *testing.T, cachedAt time.Time, respOpts mocks.TokenResponseOptions) *cache.SavedTokens {
	t.Helper()
	if respOpts.Scope == "" {
		respOpts.Scope = "openid profile email user.read"
	}
	body, err := mocks.NewTokenResponseBody(respOpts)
	require.NoError(t, err)
	resp, err := oidc.ParseTokenResponse(body)
	require.NoError(t, err)
	saved, err := e.manager.SaveTokenResponse(resp, cache.SaveOptions{
		Environment:     testEnvironment,
		ClientID:        testClientID,
		AuthorityType:   "MSSTS",
		Scheme:          oidc.SchemeBearer,
		RequestedScopes: oidc.ScopeSetFromString(resp.Scope),
		Now:             cachedAt,
	})
	require.NoError(t, err)
	return saved
}

func testAccountInfo() *cache.Account {
	return &cache.Account{
		HomeAccountID: testHomeAccountID,
		Environment:   testEnvironment,
		Realm:         testRealm,
	}
}

func validSilentRequest() *flows.SilentRequest {
	return &flows.SilentRequest{
		Account:       testAccountInfo(),
		Scopes:        []string{"user.read"},
		CorrelationID: "test-correlation-id",
	}
}

// respondWith installs a transport handler answering every call with the
// given body and headers.
func (e *testEnv) respondWith(status int, body []byte, headers map[string]string) {
	e.transport.Handler = func(mocks.CapturedRequest) (*flows.Response, error) {
		if headers == nil {
			headers = map[string]string{}
		}
		return &flows.Response{StatusCode: status, Headers: headers, Body: body}, nil
	}
}

func maxAge(d time.Duration) *time.Duration {
	return &d
}
