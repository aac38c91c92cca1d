// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package cracktime turns a password keyspace into order of magnitude crack time advisories.
//
// Two strategies coexist. Simple derives the keyspace from alphabet^length and formats coarse
// minute buckets, Advanced derives it from 2^entropy and formats calendar units. They give
// different answers for the same password and are kept apart on purpose.
package cracktime

import "strings"

// Mode identifies an attack profile.
type Mode string

const (
	Online          Mode = "online"
	OfflineFastHash Mode = "offline-fast-hash"
	OfflineSlowHash Mode = "offline-slow-hash"
)

// Modes is the set of attack profiles reported for every password.
var Modes = []Mode{Online, OfflineFastHash, OfflineSlowHash}

type Estimator interface {
	Name() string
	// Estimate never fails, unknown modes fall back to a default rate.
	Estimate(password string, mode Mode) string
}

// ByName returns the strategy registered under name, case-insensitive.
func ByName(name string) (Estimator, bool) {
	switch strings.ToLower(name) {
	case "simple":
		return Simple{}, true
	case "advanced", "":
		return Advanced{}, true
	}

	return nil, false
}
