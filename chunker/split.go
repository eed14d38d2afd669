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


package chunker

import "strings"

const (
	// DefaultMarker is the delimiter the build farm writes around file names.
	DefaultMarker = "==~_~===-=-===~_~=="

	// HeadSection names the text preceding the first marker.
	HeadSection = "head"
)

// Section is one named piece of a log.
type Section struct {
	Name string
	Text string
}

// Split splits text into sections delimited by marker.
//
// Markers alternate between ending a content section and ending a name
// token, starting with content. The text before the first marker is named
// "head". A trailing name with no closing marker is consumed without
// producing a section. An empty marker never matches.
func Split(text, marker string) []Section {
	if marker == "" {
		return []Section{{Name: HeadSection, Text: text}}
	}

	var sections []Section
	name := HeadSection
	rest := text

	for {
		end := strings.Index(rest, marker)
		if end < 0 {
			sections = append(sections, Section{Name: name, Text: rest})
			return sections
		}
		sections = append(sections, Section{Name: name, Text: rest[:end]})
		rest = rest[end+len(marker):]

		nameEnd := strings.Index(rest, marker)
		if nameEnd < 0 {
			// Dangling name: nothing follows it, so no section is emitted.
			return sections
		}
		name = rest[:nameEnd]
		rest = rest[nameEnd+len(marker):]
	}
}

// Tail returns the last n characters of s, or s itself if it is shorter.
// n <= 0 means no limit.
func Tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		// Byte length bounds rune count, so s has at most n characters.
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
