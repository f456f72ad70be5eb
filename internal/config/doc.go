// Package config loads, normalizes, and validates agencyboard configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as AGENCYBOARD_API_TOKEN
// and AGENCYBOARD_SIGNING_KEY. The Config type centralizes every knob the API
// server and CLI need so storage locations, board polling, and outbound
// integrations are discovered in one pass.
package config
