// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"context"
	"net/http"
	"strings"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/middleware"
	"devcamper.io/devcamper/server/storage"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

type ctxKey string

const authUserDataKey ctxKey = "authUserData"

func parseBearerAuth(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// Middleware which populates the context with the caller's user data, if the
// access token is provided and is correct. If it's provided but isn't
// correct, responds with 401.
//
// NOTE: be sure to use it after httphelper.MakeDesiredContentTypeMiddleware(),
// since the error response should be in the right format
func (dc *DCServer) authnMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseBearerAuth(r)

		if !ok {
			// Browser WebSocket API can't set the Authorization header, but it
			// can send basic auth credentials; so, basic auth with an empty
			// password means that the username is a token.
			var username, password string
			username, password, ok = r.BasicAuth()
			if ok {
				if username != "" && password == "" {
					glog.V(2).Infof("Interpreting basic auth username as a token")
					token = username
				} else {
					glog.V(2).Infof("Failed to use basic auth: password should be empty, username should not.")
					ok = false
				}
			}
		}

		if ok {
			ud, err := dc.si.GetUserByAccessToken(r.Context(), token)
			if err != nil {
				if errors.Cause(err) == storage.ErrUserDoesNotExist {
					err = hh.MakeUnauthorizedErrorf("invalid access token")
				}
				w.Header().Set("WWW-Authenticate", "Bearer realm=\"login please\"")
				hh.RespondWithError(w, r, errors.Trace(err))
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), authUserDataKey, ud))
		}

		// Process request, whether authn data was not provided at all, or was
		// provided correctly.
		inner.ServeHTTP(w, r)
	}
	return middleware.MkMiddleware(mw)
}

// authnRequiredMiddleware responds with 401 unless the request is
// authenticated.
func (dc *DCServer) authnRequiredMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		if getAuthnUserDataByReq(r) == nil {
			w.Header().Set("WWW-Authenticate", "Bearer realm=\"login please\"")
			hh.RespondWithError(w, r, hh.MakeUnauthorizedError())
			return
		}

		inner.ServeHTTP(w, r)
	}
	return middleware.MkMiddleware(mw)
}

// authnRequired is like authnRequiredMiddleware, but for a single handler,
// which is also reachable over WebSocket.
func authnRequired(h DCHandler) DCHandler {
	return func(dcr *DCRequest) (interface{}, error) {
		if dcr.Caller == nil {
			return nil, hh.MakeUnauthorizedError()
		}
		return h(dcr)
	}
}

func getAuthnUserDataByReq(r *http.Request) *storage.UserData {
	v := r.Context().Value(authUserDataKey)
	if v == nil {
		// Not authenticated
		return nil
	}

	return v.(*storage.UserData)
}
