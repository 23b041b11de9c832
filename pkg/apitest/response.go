package apitest

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-apismoke/pkg/validation"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body keeping numbers exact.
func (r *Response) JSON() (any, error) {
	return validation.Decode(r.Body)
}

// Decode unmarshals the body into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("apitest: decode response: %w", err)
	}
	return nil
}
