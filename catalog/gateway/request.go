package gateway

import (
	"context"
	"net/url"
)

const (
	GatewayPath = "/osrf-gateway-v1"
	IDLPath     = "/reports/fm_IDL.xml"
)

// Transport fetches the raw bytes addressed by a request.
type Transport interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Request struct {
	Path  string
	Query url.Values
}

func IDLRequest() Request {
	return Request{Path: IDLPath}
}

// MethodRequest addresses an OpenSRF method through the JSON gateway.
func MethodRequest(service, method string, params ...string) Request {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("input_format", "json")
	q.Set("service", service)
	q.Set("method", method)
	for _, p := range params {
		q.Add("param", p)
	}
	return Request{Path: GatewayPath, Query: q}
}

// Key is the stable address of the request: its path and encoded query.
func (r Request) Key() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

func (r Request) Method() string {
	return r.Query.Get("method")
}

func (r Request) Params() []string {
	return r.Query["param"]
}
