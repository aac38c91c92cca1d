// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

var (
	// root
	verbose bool
	// root
	profile bool
	// root
	pprofPort uint16
	// check, breach
	interactive bool
	// check, breach, mirror
	hibpURL string
	// check, breach
	padding bool
	// check, breach
	retries int
	// check
	protocol string
	// check
	hashAlgorithm string
	// check
	breach bool
	// check
	strategy string
	// generate
	length int
	// generate
	count int
	// mirror
	outFile string
	// mirror
	threads int
	// mirror
	ranges int
	// mirror
	overwrite bool
	// serve
	selfTLS bool
	// serve
	tlsCert string
	// serve
	tlsKey string
	// serve
	port uint16
)
