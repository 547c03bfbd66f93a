// Package api provides the HTTP clients for the public services the app reads from.
package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ErrMalformedResponse is returned when a response body does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when a service answers with a non-2xx status.
type StatusError struct {
	Service string
	Code    int
	Status  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Code, e.Status)
}

func checkResponse(service string, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &StatusError{Service: service, Code: resp.StatusCode(), Status: resp.Status()}
}

func decode(what string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", what, errors.Join(ErrMalformedResponse, err))
	}
	return nil
}
