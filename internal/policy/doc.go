// Package policy implements the deterministic variant policy engine: a
// fixed catalog of named policies, each an ordered list of prompt
// injections, expanded into labeled prompt/seed variants without any I/O.
//
// Expansion is pure: identical requests produce byte-identical payloads, and
// the seed at position i is always base_seed + i. Requesting more variants
// than a policy has injections truncates to the policy length.
package policy
