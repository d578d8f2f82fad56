// Package thumbcache implements the content-addressed thumbnail cache.
//
// A photo is identified externally by its filename, but its thumbnail is
// keyed by the SHA-256 of the photo's bytes ([ContentDigest]). Three pieces
// cooperate:
//
//   - [Index] remembers filename -> digest so unchanged files are hashed once
//     per process lifetime.
//   - [Store] is a flat directory of <digest>.jpg files. Files are published
//     with write-to-temp-then-rename, so a reader never observes a partial
//     thumbnail, and an existing file is always correct for its digest.
//   - [Engine] runs the get-or-create path: resolve the digest, serve from
//     the store, or render, persist and return.
//
// Byte-identical photos under different names share one stored thumbnail.
//
// # Concurrency
//
// Concurrent requests for the same never-seen photo may both hash it, which
// is deterministic and harmless. Renders are coalesced per digest with
// singleflight, and a caller whose context ends stops waiting while the
// shared render still completes and publishes.
//
// # Warmup
//
// [Engine.Warmup] walks every photo in the source directory through the same
// path at startup. Per-photo failures are logged and skipped; only failing to
// create the store root is fatal ([StartupError]).
//
// # Staleness
//
// Index entries are never invalidated. If a file's bytes change but its name
// does not, the old digest (and thumbnail) keeps being served until restart.
package thumbcache
