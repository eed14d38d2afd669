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

import "fmt"

// ValidateLogBlob validates a LogBlob according to domain rules.
//
// Validation rules:
//   - SysName, Snapshot and Stage must not be empty (they form the report key)
//
// NOT validated:
//   - Log (a missing log is treated as empty text)
//   - Status, Branch, Commit (informational only)
func ValidateLogBlob(blob *LogBlob) error {
	if blob == nil {
		return fmt.Errorf("%w: blob is nil", ErrMalformedInput)
	}
	if blob.SysName == "" {
		return fmt.Errorf("%w: sysname", ErrMissingField)
	}
	if blob.Snapshot == "" {
		return fmt.Errorf("%w: snapshot", ErrMissingField)
	}
	if blob.Stage == "" {
		return fmt.Errorf("%w: stage", ErrMissingField)
	}
	return nil
}

// ValidateChunk validates a chunk read back from a serialized record stream.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrMalformedInput)
	}
	if chunk.SysName == "" {
		return fmt.Errorf("%w: sysname", ErrMissingField)
	}
	if chunk.Snapshot == "" {
		return fmt.Errorf("%w: snapshot", ErrMissingField)
	}
	if chunk.Key < 0 {
		return fmt.Errorf("%w: negative key %d", ErrMalformedInput, chunk.Key)
	}
	return nil
}
