// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "regexp"

var sessionIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsSafeSessionID returns true if the ID is safe to embed in URLs and log keys.
func IsSafeSessionID(id string) bool {
	return len(id) <= 64 && sessionIDRe.MatchString(id)
}
