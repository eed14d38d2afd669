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


// Package batcher groups chunks into batches that fit a request budget.
//
// Packing is greedy and order-preserving: chunks are appended to the
// current batch until the next one would overflow the budget, at which point
// a new batch is started. Batches are therefore contiguous and their
// concatenation is the input sequence. Costs come from a pluggable CostFunc,
// so an exact tokenizer can replace the default character estimate without
// touching the packing logic.
package batcher
