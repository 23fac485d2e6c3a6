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

import "sync"

// Storage is the persistence collaborator behind the Manager. The medium
// decides durability and cross-process coordination; the Manager only
// requires that a Get issued after a returned Set observes the write.
type Storage interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Remove(key string) error
	Keys() []string
}

// InMemory is a Storage backed by a map. It is the reference medium for
// tests and single-process embedders; integrations supply their own medium
// for anything persistent.
type InMemory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string][]byte)}
}

func (s *InMemory) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	return value, ok
}

func (s *InMemory) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
	return nil
}

func (s *InMemory) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *InMemory) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys
}
