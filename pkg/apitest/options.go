package apitest

import (
	"fmt"
	"net/http"
	"net/url"
)

// Option customises a single request.
type Option func(*request)

type request struct {
	method   string
	status   int
	header   http.Header
	query    url.Values
	args     map[string]string
	jsonBody any
	hasJSON  bool
	form     url.Values
}

func newRequest(method string, status int, opts []Option) *request {
	req := &request{
		method: method,
		status: status,
		header: http.Header{},
		query:  url.Values{},
		args:   map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	return req
}

// Method overrides the HTTP method.
func Method(method string) Option {
	return func(r *request) {
		r.method = method
	}
}

// Status sets the expected response status code.
func Status(code int) Option {
	return func(r *request) {
		r.status = code
	}
}

// Header adds a request header.
func Header(key, value string) Option {
	return func(r *request) {
		r.header.Add(key, value)
	}
}

// Query appends values for a query parameter. Repeated keys are kept in
// order, so Query("id", 1, 2) yields "id=1&id=2".
func Query(key string, values ...any) Option {
	return func(r *request) {
		for _, value := range values {
			r.query.Add(key, fmt.Sprint(value))
		}
	}
}

// QueryValues merges values into the query string.
func QueryValues(values url.Values) Option {
	return func(r *request) {
		for key, items := range values {
			r.query[key] = append(r.query[key], items...)
		}
	}
}

// Arg sets a path argument.
func Arg(name string, value any) Option {
	return func(r *request) {
		r.args[name] = fmt.Sprint(value)
	}
}

// JSONBody sends v encoded as JSON.
func JSONBody(v any) Option {
	return func(r *request) {
		r.jsonBody = v
		r.hasJSON = true
		r.form = nil
	}
}

// FormBody sends values as an urlencoded form.
func FormBody(values url.Values) Option {
	return func(r *request) {
		r.form = values
		r.jsonBody = nil
		r.hasJSON = false
	}
}
