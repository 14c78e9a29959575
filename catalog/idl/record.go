package idl

import (
	"encoding/json"
	"strconv"
)

// Record is a positionally encoded fieldmapper object. Values hold scalars,
// nested *Record values, []interface{} sequences or nil.
type Record struct {
	Class  Class
	Values []interface{}
}

func NewRecord(class Class, values ...interface{}) *Record {
	return &Record{Class: class, Values: values}
}

// Get returns the value stored at field's position. A field missing from the
// schema, or a position past the end of the record, is reported as not present.
func (s *Schema) Get(rec *Record, field string) (interface{}, bool) {
	if rec == nil {
		return nil, false
	}
	i, ok := s.Sequence(rec.Class, field)
	if !ok || i >= len(rec.Values) {
		return nil, false
	}
	return rec.Values[i], true
}

// Object binds a record to the schema that describes it.
type Object struct {
	schema *Schema
	record *Record
}

func (s *Schema) Object(rec *Record) Object {
	return Object{schema: s, record: rec}
}

func (o Object) Class() Class {
	if o.record == nil {
		return ""
	}
	return o.record.Class
}

func (o Object) Get(field string) (interface{}, bool) {
	return o.schema.Get(o.record, field)
}

func (o Object) String(field string) (string, bool) {
	v, ok := o.Get(field)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// Int accepts numbers and numeric strings; ids arrive as either.
func (o Object) Int(field string) (int64, bool) {
	v, ok := o.Get(field)
	if !ok {
		return 0, false
	}
	if i, ok := Int(v); ok {
		return i, true
	}
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func (o Object) Record(field string) (*Record, bool) {
	v, ok := o.Get(field)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*Record)
	return rec, ok && rec != nil
}

func (o Object) Records(field string) ([]*Record, bool) {
	v, ok := o.Get(field)
	if !ok {
		return nil, false
	}
	return Records(v)
}

// Int converts a numeric scalar. Strings are not numeric here: a string in an
// id column is a value that has already been named.
func Int(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	default:
		return 0, false
	}
}

// Records returns the records of a sequence value, skipping elements that are
// not records. ok is false when v is not a sequence.
func Records(v interface{}) ([]*Record, bool) {
	switch t := v.(type) {
	case []*Record:
		return t, true
	case []interface{}:
		recs := make([]*Record, 0, len(t))
		for _, e := range t {
			if rec, ok := e.(*Record); ok && rec != nil {
				recs = append(recs, rec)
			}
		}
		return recs, true
	default:
		return nil, false
	}
}
