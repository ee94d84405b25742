// Copyright 2014 Manu Martinez-Almeida.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package middleware

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	RequestIDHeader = "X-Request-Id"
	RequestIDKey    = "requestID"
)

const (
	green   = "\033[97;42m"
	white   = "\033[90;47m"
	yellow  = "\033[97;43m"
	red     = "\033[97;41m"
	blue    = "\033[97;44m"
	magenta = "\033[97;45m"
	cyan    = "\033[97;46m"
	reset   = "\033[0m"
)

var methodColors = map[string]string{
	http.MethodGet:     blue,
	http.MethodPost:    cyan,
	http.MethodPut:     yellow,
	http.MethodDelete:  red,
	http.MethodPatch:   green,
	http.MethodHead:    magenta,
	http.MethodOptions: white,
}

type logFunc func(format string, args ...interface{})

// statusClass returns the color and the glog level for the given HTTP
// status code. Client errors are warnings, server errors are errors.
func statusClass(code int) (string, logFunc) {
	switch code / 100 {
	case 1, 2:
		return green, glog.Infof
	case 3:
		return white, glog.Warningf
	case 4:
		return yellow, glog.Warningf
	default:
		return red, glog.Errorf
	}
}

func methodColor(method string) string {
	if c, ok := methodColors[method]; ok {
		return c
	}
	return reset
}

type RWWrapper struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *RWWrapper) saveStatus(status int, warn bool) {
	if !r.written {
		r.status = status
		r.written = true
	} else if warn {
		glog.Errorf("double header write (previous: %d, new: %d)", r.status, status)
	}
}

func (r *RWWrapper) WriteHeader(status int) {
	r.saveStatus(status, true)
	r.ResponseWriter.WriteHeader(status)
}

func (r *RWWrapper) Write(p []byte) (int, error) {
	r.saveStatus(http.StatusOK, false)
	return r.ResponseWriter.Write(p)
}

// Hijack is needed for websocket connections to work through the logger.
func (r *RWWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.Errorf("response writer %T is not a hijacker", r.ResponseWriter)
	}
	// Hijacked connection talks the websocket protocol, which starts with 101
	r.saveStatus(http.StatusSwitchingProtocols, false)
	return hj.Hijack()
}

// GetRequestID returns the id assigned to the request by the logger
// middleware, or an empty string.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func MakeLogger() func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		mw := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)
			r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, reqID))

			rwwrapper := &RWWrapper{
				ResponseWriter: w,
			}

			inner.ServeHTTP(rwwrapper, r)

			clientIP := r.RemoteAddr
			if ip := r.Header.Get("X-Real-Ip"); ip != "" {
				clientIP = ip
			}

			statusCode := rwwrapper.status
			if !rwwrapper.written {
				statusCode = http.StatusOK
			}
			statusColor, logf := statusClass(statusCode)

			logf("|%s %3d %s| %13v | %s | %s |%s %-7s %s %s",
				statusColor, statusCode, reset,
				time.Since(start),
				clientIP,
				reqID,
				methodColor(r.Method), r.Method, reset,
				path,
			)
		}
		return MkMiddleware(mw)
	}
}
