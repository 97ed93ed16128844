// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages folio configuration.
//
// # Configuration Precedence
//
// Settings are resolved from (highest first):
//   - Environment variables (FOLIO_*, GROQ_API_KEY, ALLOWED_ORIGINS)
//   - A .env file in the working directory or ~/.folio
//   - ~/.folio/config.toml
//   - ~/.folio/config.json
//   - Built-in defaults
//
// FOLIO_HOME replaces ~/.folio as the config directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("CONFIG_LOAD_FAILED | err=%v", err)
//	}
//	pacing := cfg.Pacing()
package config
