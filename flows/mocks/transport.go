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

// Package mocks provides a capturing fake transport and token response
// builders for testing the silent and refresh flows. Builders construct
// their data fresh on every call; nothing in this package is shared
// mutable state.
package mocks

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/silentflow/silentflow/flows"
)

// CapturedRequest is one POST observed by the fake transport.
type CapturedRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Form parses the captured body as a URL-encoded form.
func (r CapturedRequest) Form() (url.Values, error) {
	return url.ParseQuery(string(r.Body))
}

// Transport is a flows.Transport that records every request and answers
// from an injected handler.
type Transport struct {
	mu       sync.Mutex
	requests []CapturedRequest

	// Handler produces the response for each request. When nil, every
	// call fails.
	Handler func(req CapturedRequest) (*flows.Response, error)
}

// NewTransport returns a fake transport answering every request with the
// same handler.
func NewTransport(handler func(req CapturedRequest) (*flows.Response, error)) *Transport {
	return &Transport{Handler: handler}
}

func (t *Transport) Post(_ context.Context, postURL string, headers map[string]string, body []byte) (*flows.Response, error) {
	headersCopy := make(map[string]string, len(headers))
	for k, v := range headers {
		headersCopy[k] = v
	}
	bodyCopy := append([]byte(nil), body...)
	captured := CapturedRequest{URL: postURL, Headers: headersCopy, Body: bodyCopy}

	t.mu.Lock()
	t.requests = append(t.requests, captured)
	handler := t.Handler
	t.mu.Unlock()

	if handler == nil {
		return nil, fmt.Errorf("mock transport has no handler")
	}
	return handler(captured)
}

// Requests returns a copy of every captured request in order.
func (t *Transport) Requests() []CapturedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CapturedRequest(nil), t.requests...)
}

// Calls returns how many requests the transport has served.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}
