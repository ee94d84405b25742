// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"context"
	"encoding/json"
	"net/http"

	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/middleware"
	"devcamper.io/devcamper/server/storage"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

type wsRoute struct {
	pattern *pat.Pattern
	handler DCHandler
}

// WebSocketMux dispatches requests received over WebSocket connections to
// the same handlers as the HTTP mux, matching them by the same patterns.
type WebSocketMux struct {
	routes []wsRoute
}

func (m *WebSocketMux) Add(pattern *pat.Pattern, handler DCHandler) {
	m.routes = append(m.routes, wsRoute{pattern: pattern, handler: handler})
}

func (m *WebSocketMux) Handle(dcr *DCRequest) (resp interface{}, err error) {
	for _, route := range m.routes {
		if r := route.pattern.Match(dcr.HTTPReq); r != nil {
			dcr.HTTPReq = r
			return route.handler(dcr)
		}
	}

	return nil, hh.MakeNotFoundErrorf(
		"no handler for %s %s", dcr.HTTPReq.Method, dcr.HTTPReq.URL.Path,
	)
}

func (dc *DCServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(dc.opts.CORSOrigins) == 0 {
		return true
	}

	for _, o := range dc.opts.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}

	return false
}

func (dc *DCServer) webSocketConnect(w http.ResponseWriter, r *http.Request) error {
	caller := getAuthnUserDataByReq(r)
	if caller == nil {
		return hh.MakeUnauthorizedError()
	}

	upgrader := websocket.Upgrader{CheckOrigin: dc.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already responded to the client
		glog.V(2).Infof("WebSocket upgrade failed: %s", err)
		return nil
	}

	glog.V(2).Infof("User %s connected via WebSocket", caller.ID)

	dc.wsConnsMtx.Lock()
	dc.wsConns[conn] = struct{}{}
	dc.wsConnsMtx.Unlock()

	reqID := middleware.GetRequestID(r.Context())
	go dc.serveWebSocket(conn, caller, reqID)

	return nil
}

// serveWebSocket handles requests received from the connection one by one,
// until the connection is closed.
func (dc *DCServer) serveWebSocket(
	conn *websocket.Conn, caller *storage.UserData, reqID string,
) {
	defer func() {
		dc.wsConnsMtx.Lock()
		delete(dc.wsConns, conn)
		dc.wsConnsMtx.Unlock()

		conn.Close()
	}()

	for {
		_, reader, err := conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Errorf("WebSocket %s: reading: %s", reqID, err)
			}
			return
		}

		var wsr WebSocketRequest
		decoder := json.NewDecoder(reader)
		decoder.UseNumber()

		var wsResp *WebSocketResponse
		if err := decoder.Decode(&wsr); err != nil {
			wsResp = makeWebSocketErrorResp(
				&wsr, hh.MakeBadRequestErrorf("invalid request: %s", err),
			)
		} else {
			wsResp = dc.handleWebSocketRequest(&wsr, caller, reqID)
		}

		if err := conn.WriteJSON(wsResp); err != nil {
			glog.Errorf("WebSocket %s: writing: %s", reqID, err)
			return
		}
	}
}

func (dc *DCServer) handleWebSocketRequest(
	wsr *WebSocketRequest, caller *storage.UserData, reqID string,
) *WebSocketResponse {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, reqID)

	dcr, err := makeDCRequestFromWebSocketRequest(ctx, wsr, caller)
	if err != nil {
		return makeWebSocketErrorResp(wsr, errors.Trace(err))
	}

	resp, err := dc.wsMux.Handle(dcr)
	if err != nil {
		return makeWebSocketErrorResp(wsr, errors.Trace(err))
	}

	status, body := hh.UnwrapResp(resp)
	glog.V(2).Infof("WebSocket %s: %s %s: %d", reqID, wsr.Method, wsr.Path, status)

	return &WebSocketResponse{
		ID:     wsr.ID,
		Method: wsr.Method,
		Path:   wsr.Path,
		Status: status,
		Body:   body,
	}
}

func makeWebSocketErrorResp(wsr *WebSocketRequest, err error) *WebSocketResponse {
	hh.LogError(err)
	errStruct := hh.GetErrorStruct(err)

	return &WebSocketResponse{
		ID:     wsr.ID,
		Method: wsr.Method,
		Path:   wsr.Path,
		Status: errStruct.Status,
		Body:   errStruct,
	}
}
