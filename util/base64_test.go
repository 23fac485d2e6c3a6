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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	in := []byte(`{"uid":"a","utid":"b"}`)
	encoded := Base64EncodeForJWT(in)
	decoded, err := Base64DecodeForJWT(encoded)
	require.NoError(t, err)
	require.Equal(t, in, decoded)
}

func TestBase64DecodeRejectsPadding(t *testing.T) {
	_, err := Base64DecodeForJWT([]byte("aGVsbG8="))
	require.Error(t, err)
}

func TestSplitCompact(t *testing.T) {
	protected, payload, signature, err := SplitCompact([]byte("aaa.bbb.ccc"))
	require.NoError(t, err)
	require.Equal(t, "aaa", string(protected))
	require.Equal(t, "bbb", string(payload))
	require.Equal(t, "ccc", string(signature))

	_, _, _, err = SplitCompact([]byte("aaa.bbb"))
	require.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	payload := Base64EncodeForJWT([]byte(`{"sub":"x"}`))
	token := append([]byte("eyJhbGciOiJub25lIn0."), payload...)
	token = append(token, '.')

	decoded, err := DecodePayload(token)
	require.NoError(t, err)
	require.Equal(t, `{"sub":"x"}`, string(decoded))
}
