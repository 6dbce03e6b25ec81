// Package simulate generates synthetic profile records for exercising the
// classifier without network access.
//
// Records are drawn from five archetypes, each built so the stock
// thresholds give it a known label. Output is deterministic for a seed and
// can be written as a YAML fixture for the mock provider.
package simulate
