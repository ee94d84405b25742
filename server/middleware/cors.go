// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// MakeCORS returns a middleware which answers preflight requests and sets
// CORS headers for the given origins. An empty list allows any origin.
func MakeCORS(allowedOrigins []string) func(inner http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{RequestIDHeader},
	})

	return c.Handler
}
