// Package provider supplies profile records to the classifier.
//
// MockProvider answers from a fixed table (built in, or a YAML fixture file
// produced by igaudit simulate). InstagramProvider fetches live data through
// pkg/instagram with rate limiting and retries. CachedProvider wraps either
// one with a pkg/cache backend.
package provider
