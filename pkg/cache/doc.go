// Package cache stores fetched profile records between checks.
//
// Three backends implement Cache: Memory (patrickmn/go-cache, in process),
// Redis (redis/go-redis) and Memcached (bradfitz/gomemcache). New picks one
// from the cache section of the configuration.
package cache
