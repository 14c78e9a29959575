package gateway

import (
	"context"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/pkg/errors"
)

// Memory serves canned responses by request key and records every fetch.
type Memory struct {
	Responses map[string][]byte
	Failures  map[string]error
	Requests  []string
}

func NewMemory() *Memory {
	return &Memory{
		Responses: map[string][]byte{},
		Failures:  map[string]error{},
	}
}

func (m *Memory) Set(req Request, body []byte) {
	delete(m.Failures, req.Key())
	m.Responses[req.Key()] = body
}

// SetPayload stores a gateway envelope wrapping values.
func (m *Memory) SetPayload(req Request, values ...interface{}) error {
	bs, err := EncodePayload(values...)
	if err != nil {
		return err
	}
	m.Set(req, bs)
	return nil
}

func (m *Memory) Fail(req Request, err error) {
	delete(m.Responses, req.Key())
	m.Failures[req.Key()] = err
}

func (m *Memory) Fetch(_ context.Context, req Request) ([]byte, error) {
	key := req.Key()
	m.Requests = append(m.Requests, key)

	if err, ok := m.Failures[key]; ok {
		return nil, errs.TransportFailure(key, err)
	}
	bs, ok := m.Responses[key]
	if !ok {
		return nil, errs.TransportFailure(key, errors.New("no response"))
	}
	return bs, nil
}

func (m *Memory) Count(req Request) int {
	n := 0
	for _, k := range m.Requests {
		if k == req.Key() {
			n += 1
		}
	}
	return n
}

func (m *Memory) Clear() {
	m.Requests = []string{}
}
