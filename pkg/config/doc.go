// Package config loads env-tagged structs with github.com/caarlos0/env/v11.
//
// Load caches one value per type for the process lifetime and is what
// binaries use at start. Parse is uncached and accepts options for a tag
// prefix, explicit dotenv files or a fixed environment map, which keeps
// tests independent from the process environment.
package config
