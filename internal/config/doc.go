// Package config loads, normalizes, and validates redub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, canonicalises language tags, and honours
// environment fallbacks such as HF_TOKEN and OPENROUTER_API_KEY. The Config
// type centralizes every knob the dubbing pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
