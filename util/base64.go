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

package util

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

var rawURLEncoding = base64.RawURLEncoding.Strict()

// Base64EncodeForJWT encodes raw bytes using the unpadded base64url
// alphabet mandated for JWT segments.
func Base64EncodeForJWT(decoded []byte) []byte {
	encoded := make([]byte, rawURLEncoding.EncodedLen(len(decoded)))
	rawURLEncoding.Encode(encoded, decoded)
	return encoded
}

// Base64DecodeForJWT decodes an unpadded base64url JWT segment.
func Base64DecodeForJWT(encoded []byte) ([]byte, error) {
	decoded := make([]byte, rawURLEncoding.DecodedLen(len(encoded)))
	n, err := rawURLEncoding.Decode(decoded, encoded)
	if err != nil {
		return nil, err
	}
	return decoded[:n], nil
}

// SplitCompact splits a compact JWT into its three segments without
// decoding them.
func SplitCompact(token []byte) (protected, payload, signature []byte, err error) {
	parts := bytes.Split(token, []byte("."))
	if len(parts) != 3 {
		return nil, nil, nil, fmt.Errorf("expected a compact JWT with 3 segments, got %d", len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}

// DecodePayload returns the decoded payload segment of a compact JWT.
func DecodePayload(token []byte) ([]byte, error) {
	_, payload, _, err := SplitCompact(token)
	if err != nil {
		return nil, err
	}
	decoded, err := Base64DecodeForJWT(payload)
	if err != nil {
		return nil, fmt.Errorf("error decoding JWT payload: %w", err)
	}
	return decoded, nil
}
