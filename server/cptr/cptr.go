// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

// Package cptr returns pointers to copies of the given values; handy for
// optional fields of patch structs.
package cptr // import "devcamper.io/devcamper/server/cptr"

func String(v string) *string {
	return &v
}

func Int(v int) *int {
	return &v
}

func Float64(v float64) *float64 {
	return &v
}

func Bool(v bool) *bool {
	return &v
}

// StringOr returns *p, or def if p is nil.
func StringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
