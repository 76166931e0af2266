// Package config loads, defaults, normalizes, and validates framekeep
// configuration from TOML.
//
// Load resolves the config path (explicit flag, then
// ~/.config/framekeep/config.toml, then ./framekeep.toml), applies defaults
// for anything unset, expands ~ in paths, and validates the result. A missing
// config file is not an error; defaults describe a complete local project.
package config
