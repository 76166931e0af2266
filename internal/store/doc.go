// Package store persists the project catalog: assets, prompt stacks,
// keyframe sets with their variant items, and the seed bank. Storage is a
// single SQLite database per project with embedded schema migrations.
//
// All timestamps are unix epoch milliseconds. Ids are opaque strings of the
// form "<kind>_<32 hex>". JSON-valued columns travel as raw strings so the
// catalog never needs to understand payloads it only moves around.
package store
