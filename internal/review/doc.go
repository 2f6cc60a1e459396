// Package review is the core patch-review pipeline: prompt construction,
// response parsing, violation aggregation, and the concurrent engine that
// ties them to a backend.
//
// The flow per chunk is prompt -> submit -> parse, run on a bounded worker
// pool; the aggregator is the single synchronization barrier and sees
// results in chunk order, never completion order, so output is reproducible
// across runs. Every per-chunk failure degrades to an incomplete marker
// rather than failing the run: a partial review still helps a human, no
// review does not.
//
// The response parser (parser.go) is deliberately paranoid. Models wrap
// payloads in prose and fences, quote numbers, and drop fields; the parser
// scans for balanced JSON, salvages individual entries from malformed
// arrays, and drops what it cannot validate. Only a response with no
// structured payload at all is an error, and even that is per-chunk.
package review
