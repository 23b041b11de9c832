package apitest

import (
	"net/http"
	"net/http/httptest"
)

// Requester sends a request and returns the response. *http.Client
// satisfies it for servers reached over the network.
type Requester interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHost is the Host header given to in-process requests without one.
const DefaultHost = "testserver"

// HandlerRequester serves requests in process through Handler.
type HandlerRequester struct {
	Handler http.Handler
}

func (h HandlerRequester) Do(req *http.Request) (*http.Response, error) {
	if req.Host == "" {
		req.Host = DefaultHost
	}
	if req.RequestURI == "" {
		req.RequestURI = req.URL.RequestURI()
	}
	rec := httptest.NewRecorder()
	h.Handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

var _ Requester = HandlerRequester{}
var _ Requester = (*http.Client)(nil)
