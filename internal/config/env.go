// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/log"
)

// EnvPrefix prefixes every environment variable the daemon reads.
const EnvPrefix = "TOPOD_"

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password")
}

// parseEnv reads key and falls back to def when it is unset, empty or
// unparsable. Every decision is logged with its source.
func parseEnv[T any](logger zerolog.Logger, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").
			Msg("using default value")
		return def
	}
	if strings.TrimSpace(raw) == "" {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		ev := logger.Warn().Str("key", key).Err(err)
		if !isSensitiveKey(key) {
			ev = ev.Str("value", raw)
		}
		ev.Msg("invalid environment variable, using default")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Interface("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

func configLogger() zerolog.Logger { return log.WithComponent("config") }

// ParseString reads a string from the environment or returns def.
func ParseString(key, def string) string {
	return parseEnv(configLogger(), key, def, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer; parse errors fall back to def.
func ParseInt(key string, def int) int {
	return parseEnv(configLogger(), key, def, strconv.Atoi)
}

// ParseUint reads a non-negative integer.
func ParseUint(key string, def uint) uint {
	return parseEnv(configLogger(), key, def, func(s string) (uint, error) {
		n, err := strconv.ParseUint(s, 10, 0)
		return uint(n), err
	})
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, def time.Duration) time.Duration {
	return parseEnv(configLogger(), key, def, time.ParseDuration)
}

// ParseFloat reads a float64.
func ParseFloat(key string, def float64) float64 {
	return parseEnv(configLogger(), key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitive.
func ParseBool(key string, def bool) bool {
	return parseEnv(configLogger(), key, def, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		default:
			return false, fmt.Errorf("not a boolean: %q", s)
		}
	})
}

// ParseStringList reads a comma separated list, dropping blank entries.
func ParseStringList(key string, def []string) []string {
	return parseEnv(configLogger(), key, def, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}
