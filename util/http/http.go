package http

import (
	"context"
	"time"
)

// IClient is the transport used by remote segmenters.
type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	// Response, when non-nil, receives the JSON-decoded reply.
	Response interface{}

	Timeout time.Duration
}
