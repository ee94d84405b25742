// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"net/http"
	"sync"

	goji "goji.io"
	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/middleware"
	"devcamper.io/devcamper/server/resource"
	"devcamper.io/devcamper/server/storage"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

const (
	APIPrefix = "/api/v1"

	// Names of URL params
	BootcampID = "bootcampId"
	ResourceID = "id"
)

type Options struct {
	// Origins allowed to make cross-origin requests; empty means any.
	CORSOrigins []string
}

type DCServer struct {
	si      storage.Storage
	opts    Options
	courses *resource.Courses
	reviews *resource.Reviews
	wsMux   *WebSocketMux

	wsConnsMtx sync.Mutex
	wsConns    map[*websocket.Conn]struct{}
}

func New(si storage.Storage, opts *Options) (*DCServer, error) {
	if si == nil {
		return nil, errors.Errorf("storage is nil")
	}

	if opts == nil {
		opts = &Options{}
	}

	dc := DCServer{
		si:      si,
		opts:    *opts,
		courses: resource.NewCourses(si),
		reviews: resource.NewReviews(si),
		wsMux:   &WebSocketMux{},
		wsConns: map[*websocket.Conn]struct{}{},
	}
	return &dc, nil
}

// DCHandler handles API requests regardless of the transport they came over.
type DCHandler func(dcr *DCRequest) (resp interface{}, err error)

// setEndpoint registers the handler at the mux, and at the WebSocket mux as
// well.
func (dc *DCServer) setEndpoint(mux *goji.Mux, pattern *pat.Pattern, h DCHandler) {
	handler := hh.MakeAPIHandler(func(r *http.Request) (resp interface{}, err error) {
		dcr, err := makeDCRequestFromHTTPRequest(r)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return h(dcr)
	})
	mux.HandleFunc(pattern, handler)

	dc.wsMux.Add(pattern, h)
}

func (dc *DCServer) CreateHandler() (http.Handler, error) {
	rRoot := goji.NewMux()
	rRoot.Use(middleware.MakeLogger())
	rRoot.Use(middleware.MakeCORS(dc.opts.CORSOrigins))

	rAPI := goji.SubMux()
	rRoot.Handle(pat.New(APIPrefix+"/*"), rAPI)
	{
		rAPI.Use(hh.MakeDesiredContentTypeMiddleware("application/json"))
		// We use authnMiddleware here and not on the root router above, since we
		// need hh.MakeDesiredContentTypeMiddleware to go before it.
		rAPI.Use(dc.authnMiddleware)

		dc.setupCourseEndpoints(rAPI)
		dc.setupReviewEndpoints(rAPI)
		setEndpointsTest(dc, rAPI)

		rAPI.Handle(
			pat.Get("/ws"),
			dc.authnRequiredMiddleware(http.HandlerFunc(
				hh.MakeAPIHandlerWWriter(dc.webSocketConnect),
			)),
		)
	}

	return rRoot, nil
}

func (dc *DCServer) setupCourseEndpoints(mux *goji.Mux) {
	dc.setEndpoint(mux, pat.Get("/courses"),
		withPage(resource.CourseFilterFields, storage.CourseFields, dc.coursesGet))
	dc.setEndpoint(mux, pat.Get("/bootcamps/:"+BootcampID+"/courses"), dc.bootcampCoursesGet)
	dc.setEndpoint(mux, pat.Get("/courses/:"+ResourceID), dc.courseGet)
	dc.setEndpoint(mux, pat.Post("/bootcamps/:"+BootcampID+"/courses"), authnRequired(dc.coursePost))
	dc.setEndpoint(mux, pat.Put("/courses/:"+ResourceID), authnRequired(dc.coursePut))
	dc.setEndpoint(mux, pat.Delete("/courses/:"+ResourceID), authnRequired(dc.courseDelete))
}

func (dc *DCServer) setupReviewEndpoints(mux *goji.Mux) {
	dc.setEndpoint(mux, pat.Get("/reviews"),
		withPage(resource.ReviewFilterFields, storage.ReviewFields, dc.reviewsGet))
	dc.setEndpoint(mux, pat.Get("/bootcamps/:"+BootcampID+"/reviews"), dc.bootcampReviewsGet)
	dc.setEndpoint(mux, pat.Get("/reviews/:"+ResourceID), dc.reviewGet)
	dc.setEndpoint(mux, pat.Post("/bootcamps/:"+BootcampID+"/reviews"), authnRequired(dc.reviewPost))
	dc.setEndpoint(mux, pat.Put("/reviews/:"+ResourceID), authnRequired(dc.reviewPut))
	dc.setEndpoint(mux, pat.Delete("/reviews/:"+ResourceID), authnRequired(dc.reviewDelete))
}

// Close closes all WebSocket connections.
func (dc *DCServer) Close() {
	dc.wsConnsMtx.Lock()
	defer dc.wsConnsMtx.Unlock()

	for conn := range dc.wsConns {
		conn.Close()
		delete(dc.wsConns, conn)
	}
}
