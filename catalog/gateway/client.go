package gateway

import (
	"context"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client is the HTTP transport to an Evergreen server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+req.Key(), nil)
	if err != nil {
		return nil, errs.TransportFailure(req.Key(), errors.Wrap(err, "invalid request"))
	}

	res, err := c.http.Do(hreq)
	if err != nil {
		return nil, errs.TransportFailure(req.Key(), errors.WithStack(err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errs.TransportFailure(req.Key(), errors.Errorf("unexpected HTTP status: %s", res.Status))
	}

	bs, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errs.TransportFailure(req.Key(), errors.Wrap(err, "failed to read body"))
	}
	log.Debug().Str("request", req.Key()).Int("bytes", len(bs)).Msg("fetched")
	return bs, nil
}
