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

import "fmt"

// ErrorClass partitions the error taxonomy by what the integrating
// application should do next.
type ErrorClass int

const (
	// ClassConfiguration marks a malformed call by the application; never
	// retried.
	ClassConfiguration ErrorClass = iota
	// ClassControl marks the refresh-required signal: fall back to a
	// network refresh, never show to a user.
	ClassControl
	// ClassFreshness marks authentication-freshness failures that only
	// interactive re-authentication can satisfy.
	ClassFreshness
	// ClassInteractionRequired marks the absence of any usable credential
	// chain.
	ClassInteractionRequired
)

// ErrorCode is a stable, inspectable failure code. Integrations branch on
// codes, never on message text.
type ErrorCode string

const (
	CodeTokenRequestEmpty        ErrorCode = "token_request_empty"
	CodeEmptyInputScopes         ErrorCode = "empty_input_scopes_error"
	CodeNoAccountInSilentRequest ErrorCode = "no_account_in_silent_request"
	CodeTokenRefreshRequired     ErrorCode = "token_refresh_required"
	CodeNoTokensFound            ErrorCode = "no_tokens_found"
	CodeMaxAgeTranspired         ErrorCode = "max_age_transpired"
	CodeAuthTimeNotFound         ErrorCode = "auth_time_not_found"
)

// AuthError is a typed failure raised by the flows themselves, as opposed
// to errors propagated from collaborators.
type AuthError struct {
	Code    ErrorCode
	Class   ErrorClass
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AuthError with the same code, so sentinel comparison via
// errors.Is works across independently constructed values.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is comparison.
var (
	ErrTokenRequestEmpty = &AuthError{
		Code: CodeTokenRequestEmpty, Class: ClassConfiguration,
		Message: "the token request is missing or empty",
	}
	ErrEmptyInputScopes = &AuthError{
		Code: CodeEmptyInputScopes, Class: ClassConfiguration,
		Message: "the request must name at least one scope",
	}
	ErrNoAccountInSilentRequest = &AuthError{
		Code: CodeNoAccountInSilentRequest, Class: ClassConfiguration,
		Message: "a silent request must name an account",
	}
	ErrTokenRefreshRequired = &AuthError{
		Code: CodeTokenRefreshRequired, Class: ClassControl,
		Message: "the cached token cannot satisfy the request, refresh it over the network",
	}
	ErrNoTokensFound = &AuthError{
		Code: CodeNoTokensFound, Class: ClassInteractionRequired,
		Message: "no usable credentials exist for this account, interactive sign-in is required",
	}
	ErrMaxAgeTranspired = &AuthError{
		Code: CodeMaxAgeTranspired, Class: ClassFreshness,
		Message: "the last authentication is older than the requested max_age",
	}
	ErrAuthTimeNotFound = &AuthError{
		Code: CodeAuthTimeNotFound, Class: ClassFreshness,
		Message: "max_age was requested but the cached ID token has no auth_time claim",
	}
)

// ServerError is a non-2xx protocol error body from the token endpoint,
// propagated without retry.
type ServerError struct {
	StatusCode    int
	Code          string
	SubError      string
	Description   string
	CorrelationID string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("token endpoint returned %d %s: %s", e.StatusCode, e.Code, e.Description)
}

const serverErrorInvalidGrant = "invalid_grant"
