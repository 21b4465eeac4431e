// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the daemon configuration.
//
// Precedence is ENV > YAML file > defaults. The file is parsed strictly, so an
// unknown key fails the load instead of being silently ignored. Environment
// variables use the TOPOD_ prefix.
package config
