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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response header names read back from the token endpoint.
const (
	headerRequestID  = "x-ms-request-id"
	headerHTTPVer    = "x-ms-httpver"
	headerContentTyp = "Content-Type"
)

// Transport executes the token endpoint POST. The flows never open
// sockets themselves; tests substitute a capturing fake at this seam.
type Transport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
}

// Response is the transport-level result of a token endpoint call.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Header performs a case-insensitive header lookup, returning the empty
// string when the header is absent.
func (r *Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HTTPTransport adapts a net/http client to the Transport contract.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps the given client; a nil client falls back to
// http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building token request: %w", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing token request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading token response: %w", err)
	}
	flat := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		flat[name] = resp.Header.Get(name)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: flat, Body: raw}, nil
}
