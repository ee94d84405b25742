// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

//go:build !all_tests && !unit_tests && !integration_tests

package server

import (
	goji "goji.io"
)

// Set endpoints which are used by tests only. This implementation is a no-op.
func setEndpointsTest(dc *DCServer, mux *goji.Mux) {
	// Do nothing
}
