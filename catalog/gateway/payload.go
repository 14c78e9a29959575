package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/pkg/errors"
)

const (
	classKey  = "__c"
	valuesKey = "__p"
)

type envelope struct {
	Payload []interface{} `json:"payload"`
	Status  int           `json:"status"`
	Debug   string        `json:"debug,omitempty"`
}

// DecodePayload parses a gateway response and returns its payload with every
// fieldmapper object converted to an *idl.Record. Numbers stay json.Number.
func DecodePayload(body []byte) ([]interface{}, error) {
	var env envelope
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&env); err != nil {
		return nil, errs.TransportFailure("decode payload", errors.Wrap(err, "invalid gateway response"))
	}
	if env.Status != 0 && env.Status != http.StatusOK {
		return nil, errs.TransportFailure("decode payload", errors.Errorf("gateway status %d: %s", env.Status, env.Debug))
	}

	payload := make([]interface{}, len(env.Payload))
	for i, v := range env.Payload {
		if isException(v) {
			return nil, errs.TransportFailure("decode payload", errors.Errorf("server raised an exception: %v", v))
		}
		payload[i] = Unwrap(v)
	}
	return payload, nil
}

// Exceptions arrive either as a fieldmapper-looking object whose __p is a
// map, or as an ILS event carrying a stacktrace.
func isException(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	if _, ok := m["stacktrace"]; ok {
		return true
	}
	if _, ok := m["ilsevent"]; ok {
		return true
	}
	if _, ok := m[classKey]; ok {
		_, isMap := m[valuesKey].(map[string]interface{})
		return isMap
	}
	return false
}

func Unwrap(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if class, ok := t[classKey].(string); ok {
			if values, ok := t[valuesKey].([]interface{}); ok {
				rec := &idl.Record{Class: idl.Class(class), Values: make([]interface{}, len(values))}
				for i, e := range values {
					rec.Values[i] = Unwrap(e)
				}
				return rec
			}
		}
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = Unwrap(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = Unwrap(e)
		}
		return s
	default:
		return v
	}
}

// EncodePayload is the inverse of DecodePayload.
func EncodePayload(values ...interface{}) ([]byte, error) {
	env := envelope{Payload: make([]interface{}, len(values)), Status: http.StatusOK}
	for i, v := range values {
		env.Payload[i] = wrap(v)
	}
	bs, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}
	return bs, nil
}

func wrap(v interface{}) interface{} {
	switch t := v.(type) {
	case *idl.Record:
		if t == nil {
			return nil
		}
		values := make([]interface{}, len(t.Values))
		for i, e := range t.Values {
			values[i] = wrap(e)
		}
		return map[string]interface{}{classKey: string(t.Class), valuesKey: values}
	case []*idl.Record:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = wrap(e)
		}
		return s
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = wrap(e)
		}
		return s
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = wrap(e)
		}
		return m
	default:
		return v
	}
}

// First returns the first payload element, which is where every method used
// here puts its result.
func First(payload []interface{}) (interface{}, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	return payload[0], true
}
