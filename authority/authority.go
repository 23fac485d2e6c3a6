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

// Package authority defines the metadata collaborator that maps an
// authority URL to its token endpoint and protocol mode. Discovery over
// the network belongs to integrations; this package only specifies the
// contract and ships a static resolver for fixed deployments and tests.
package authority

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Mode selects which dialect the token endpoint speaks. Vendor-specific
// request decoration (server telemetry headers, routing hints) is only
// legal in ModeAAD.
type Mode string

const (
	ModeAAD  Mode = "AAD"
	ModeOIDC Mode = "OIDC"
)

// Metadata describes one resolved authority.
type Metadata struct {
	// Authority is the canonical authority URL, e.g.
	// "https://login.microsoftonline.com/common/".
	Authority string
	// TokenEndpoint is the absolute URL refresh grants are POSTed to.
	TokenEndpoint string
	// Mode is the protocol dialect of the endpoint.
	Mode Mode
}

// Host returns the environment component cache records are keyed under.
func (m Metadata) Host() string {
	u, err := url.Parse(m.Authority)
	if err != nil || u.Host == "" {
		return strings.ToLower(m.Authority)
	}
	return strings.ToLower(u.Host)
}

// Resolver resolves an authority string to its metadata.
type Resolver interface {
	Resolve(ctx context.Context, authority string) (Metadata, error)
}

// Static resolves authorities from a fixed set of metadata entries,
// matched by canonical authority URL.
type Static struct {
	entries map[string]Metadata
}

func NewStatic(entries ...Metadata) *Static {
	s := &Static{entries: make(map[string]Metadata, len(entries))}
	for _, e := range entries {
		s.entries[canonical(e.Authority)] = e
	}
	return s
}

func (s *Static) Resolve(_ context.Context, authorityURL string) (Metadata, error) {
	if meta, ok := s.entries[canonical(authorityURL)]; ok {
		return meta, nil
	}
	return Metadata{}, fmt.Errorf("no metadata registered for authority %q", authorityURL)
}

func canonical(authorityURL string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(authorityURL)), "/")
}
