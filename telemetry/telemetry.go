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

// Package telemetry defines the fire-and-forget observation sinks the
// token flows report into. Nothing returned by a sink ever influences
// control flow.
package telemetry

import "sync"

// Performance field names attached to a measurement.
const (
	FieldRefreshTokenSize = "refreshTokenSize"
	FieldHTTPVerToken     = "httpVerToken"
	FieldCacheHit         = "fromCache"
)

// PerformanceClient collects measurement fields keyed by the request's
// correlation id.
type PerformanceClient interface {
	StartMeasurement(event, correlationID string)
	AddFields(fields map[string]any, correlationID string)
}

// ServerTelemetry summarizes current and previous request outcomes for the
// vendor telemetry headers, and counts cache hits.
type ServerTelemetry interface {
	IncrementCacheHits()
	CurrentHeader() string
	LastHeader() string
}

// InMemoryPerformance records measurements in memory. It is the reference
// sink for tests; production integrations bridge to their own pipeline.
type InMemoryPerformance struct {
	mu     sync.Mutex
	fields map[string]map[string]any
	events map[string][]string
}

func NewInMemoryPerformance() *InMemoryPerformance {
	return &InMemoryPerformance{
		fields: make(map[string]map[string]any),
		events: make(map[string][]string),
	}
}

func (p *InMemoryPerformance) StartMeasurement(event, correlationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[correlationID] = append(p.events[correlationID], event)
}

func (p *InMemoryPerformance) AddFields(fields map[string]any, correlationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.fields[correlationID]
	if !ok {
		m = make(map[string]any, len(fields))
		p.fields[correlationID] = m
	}
	for k, v := range fields {
		m[k] = v
	}
}

// Fields returns a copy of the fields recorded under a correlation id.
func (p *InMemoryPerformance) Fields(correlationID string) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.fields[correlationID]))
	for k, v := range p.fields[correlationID] {
		out[k] = v
	}
	return out
}

// InMemoryServer is a ServerTelemetry that keeps plain counters and header
// values.
type InMemoryServer struct {
	mu        sync.Mutex
	cacheHits int
	current   string
	last      string
}

func NewInMemoryServer() *InMemoryServer {
	return &InMemoryServer{}
}

func (s *InMemoryServer) IncrementCacheHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

// CacheHits returns the number of requests satisfied from cache.
func (s *InMemoryServer) CacheHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheHits
}

// SetHeaders sets the values reported by CurrentHeader and LastHeader.
func (s *InMemoryServer) SetHeaders(current, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current, s.last = current, last
}

func (s *InMemoryServer) CurrentHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *InMemoryServer) LastHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// NoopPerformance discards everything. It is the default sink when an
// integration does not supply one.
type NoopPerformance struct{}

func (NoopPerformance) StartMeasurement(string, string)  {}
func (NoopPerformance) AddFields(map[string]any, string) {}

// NoopServer discards counts and reports empty headers.
type NoopServer struct{}

func (NoopServer) IncrementCacheHits()   {}
func (NoopServer) CurrentHeader() string { return "" }
func (NoopServer) LastHeader() string    { return "" }
