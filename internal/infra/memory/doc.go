// Package memory holds process-local implementations of the repositories.
//
// Posts are spread over shards chosen by an xxh3 hash of the post id. Each
// post carries its own mutex, so toggles on one post are linearized while
// toggles on different posts proceed in parallel. Nothing here survives a
// restart.
package memory
