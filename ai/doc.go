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


// Package ai provides abstractions for the remote vectorization service.
//
// Pipeline code depends only on the Embedder interface; concrete clients
// live in sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder interface
// so callers cannot couple to a concrete client. Test constructors
// (mock.NewMockEmbedder) return concrete types so tests can inject behavior
// and inspect call counts.
//
// # Rate Limiting
//
// Remote services usually cap request rates. NewRateLimitedEmbedder wraps
// any Embedder with a token bucket; it composes with the bounded worker pool
// that already caps how many requests are in flight.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedder = ai.NewRateLimitedEmbedder(embedder, cfg.RequestsPerSecond)
//
//	vectors, err := embedder.EmbedTexts(ctx, []string{"make: *** [all] Error 2"})
package ai
