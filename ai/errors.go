// Copyright 2025 Poiesic Systems
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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrCompletion indicates a transport or provider failure on a
	// completion call. Retry policy is the caller's responsibility.
	ErrCompletion = errors.New("completion failed")

	// ErrEmbedding indicates a transport or provider failure on an
	// embedding call.
	ErrEmbedding = errors.New("embedding failed")
)

// ParseError indicates the model returned output that could not be parsed
// into the expected JSON shape. It is distinguishable from transport errors
// so extraction call sites can treat it as best-effort and keep going.
type ParseError struct {
	Raw string // the (fence-stripped) model output that failed to parse
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
