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
	"fmt"
	"time"

	"github.com/silentflow/silentflow/authority"
	"github.com/silentflow/silentflow/cache"
	"github.com/silentflow/silentflow/oidc"
	"github.com/silentflow/silentflow/telemetry"
)

// Library identification sent in the refresh grant body.
const (
	libSKU        = "silentflow.go"
	libVersion    = "0.3.0"
	libCapability = "retry-after, h429"
)

// ClientOptions configures the silent and refresh clients. ClientID,
// Authority, Resolver, Transport, and Cache are required; everything else
// has a usable default.
type ClientOptions struct {
	// ClientID is the OAuth2 client id of the application.
	ClientID string
	// Authority is the default authority URL requests resolve against
	// when they do not carry their own.
	Authority string
	// Resolver maps authority URLs to token endpoint metadata.
	Resolver authority.Resolver
	// Transport executes token endpoint POSTs.
	Transport Transport
	// Cache is the credential cache manager.
	Cache *cache.Manager
	// Performance receives measurement fields keyed by correlation id.
	// Defaults to a discard sink.
	Performance telemetry.PerformanceClient
	// ServerTelemetry produces the vendor telemetry headers and counts
	// cache hits. Defaults to a discard sink.
	ServerTelemetry telemetry.ServerTelemetry
	// ClockSkew is the tolerance subtracted from expires_on when judging
	// a cached token expired. Defaults to 5 minutes.
	ClockSkew time.Duration
	// ClaimsBasedCachingEnabled keeps cached tokens usable for requests
	// that carry a claims challenge. When disabled (the default), any
	// non-empty claims request forces a network refresh.
	ClaimsBasedCachingEnabled bool
	// DefaultScopes are unioned into every refresh grant's scope
	// parameter. Defaults to openid, profile, email, offline_access.
	DefaultScopes []string
	// AppName and AppVersion identify the embedding application in the
	// request telemetry fields.
	AppName    string
	AppVersion string
	// Clock supplies the current time; tests inject a fixed one.
	// Defaults to time.Now.
	Clock func() time.Time
}

func (o ClientOptions) withDefaults() (ClientOptions, error) {
	if o.ClientID == "" {
		return o, fmt.Errorf("ClientOptions.ClientID is required")
	}
	if o.Resolver == nil {
		return o, fmt.Errorf("ClientOptions.Resolver is required")
	}
	if o.Cache == nil {
		return o, fmt.Errorf("ClientOptions.Cache is required")
	}
	if o.Transport == nil {
		o.Transport = NewHTTPTransport(nil)
	}
	if o.Performance == nil {
		o.Performance = telemetry.NoopPerformance{}
	}
	if o.ServerTelemetry == nil {
		o.ServerTelemetry = telemetry.NoopServer{}
	}
	if o.ClockSkew == 0 {
		o.ClockSkew = 5 * time.Minute
	}
	if len(o.DefaultScopes) == 0 {
		o.DefaultScopes = oidc.DefaultOIDCScopes().Slice()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o, nil
}
