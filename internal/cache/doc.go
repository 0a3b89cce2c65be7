// Package cache implements the TTL-bounded, fixed-capacity response cache
// that fronts the dispatcher (§4.2). The LRU index comes from
// hashicorp/golang-lru; a TTL wrapper sits on top so a hit still requires
// now-insertedAt < TTL even though the entry hasn't been evicted yet.
package cache
