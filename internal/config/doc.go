// Package config loads, normalizes, and validates captioner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours deployment environment overrides
// such as PORT, FRONTEND_URLS, and HINGLISH_PYTHON. The Config type centralizes
// every knob the HTTP server and CLI need: staging and state directories,
// engine commands, encoder settings, and log routing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
