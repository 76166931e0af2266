// Package faults defines the stable error taxonomy shared by the store,
// media, and promotion layers.
//
// Every fatal error surfaced by framekeep wraps one of the sentinel markers
// so calling layers (CLI, tests, future hosts) can branch on errors.Is or on
// the string code from Code without matching free-form messages. Storage
// integrity violations are translated into these markers at the store
// boundary and never leak as raw driver errors.
package faults
