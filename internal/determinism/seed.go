// Package determinism derives stable seeds for model calls so identical
// change sets produce repeatable generations on providers that honor seeding.
package determinism

import "hash/fnv"

// SeedFromKey maps an arbitrary key (typically a cache fingerprint) to a
// 64-bit seed using FNV-1a.
func SeedFromKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
