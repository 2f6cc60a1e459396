// Package patch parses unified diffs into files, hunks, and lines, and
// splits them into budget-bounded review chunks.
//
// The chunker guarantees three things: a chunk never spans files, no chunk
// exceeds the byte budget, and every changed line of the input appears in
// exactly one chunk. When a hunk has to be cut, the cut falls on a line
// boundary and a small window of surrounding context is repeated on the far
// side. A single line too large to fit any chunk is truncated with an
// explicit marker instead of failing the review.
package patch
