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


package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrOversizedUnit indicates a single chunk can never fit into a batch.
	ErrOversizedUnit = errors.New("unit exceeds batch budget")

	// ErrMalformedInput indicates an upstream record could not be understood.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingField indicates a required identifier is empty.
	ErrMissingField = errors.New("required field is empty")
)

// OversizedUnitError reports a chunk whose estimated cost alone exceeds the budget.
// It is fatal for a run: the chunk can never be scheduled.
type OversizedUnitError struct {
	Key    int
	Cost   int
	Budget int
}

func (e *OversizedUnitError) Error() string {
	return fmt.Sprintf("chunk %d: estimated cost %d exceeds budget %d", e.Key, e.Cost, e.Budget)
}

func (e *OversizedUnitError) Unwrap() error {
	return ErrOversizedUnit
}

// MalformedInputError reports an upstream record that was skipped.
type MalformedInputError struct {
	// Position locates the record in its stream: the zero-based row index
	// for database reports, the one-based line number for NDJSON records.
	Position int
	Err      error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Position, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}
