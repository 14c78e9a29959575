package idl

import (
	"encoding/xml"
	"io"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const Namespace = "http://opensrf.org/spec/IDL/base/v1"

// Class is the fieldmapper class id used as the record-class tag.
type Class string

const (
	CallNumber       Class = "acn"
	Copy             Class = "acp"
	ShelvingLocation Class = "acpl"
	OrgUnit          Class = "aou"
	CopyStatus       Class = "ccs"
	Circulation      Class = "circ"
)

var DefaultClasses = []Class{CallNumber, Copy, ShelvingLocation, OrgUnit, CopyStatus, Circulation}

// Schema maps each record class to the array position of its fields.
// It is immutable once built.
type Schema struct {
	classes map[Class]map[string]int
}

type idlClass struct {
	ID     string     `xml:"id,attr"`
	Fields []idlField `xml:"fields>field"`
}

type idlField struct {
	Name string `xml:"name,attr"`
}

// NewSchema builds a Schema from field names listed in declaration order.
func NewSchema(classes map[Class][]string) *Schema {
	s := &Schema{classes: map[Class]map[string]int{}}
	for class, fields := range classes {
		s.classes[class] = sequenceOf(fields)
	}
	return s
}

// Parse reads an IDL document and keeps the field order of the requested
// classes. DefaultClasses are used when none are given.
func Parse(r io.Reader, classes ...Class) (*Schema, error) {
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	wanted := map[Class]bool{}
	for _, c := range classes {
		wanted[c] = true
	}

	s := &Schema{classes: map[Class]map[string]int{}}
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.SchemaUnavailable("parse IDL", errors.Wrap(err, "invalid IDL document"))
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Space != Namespace || start.Name.Local != "class" {
			continue
		}
		class := Class(attr(start, "id"))
		if _, seen := s.classes[class]; !wanted[class] || seen {
			if err := decoder.Skip(); err != nil {
				return nil, errs.SchemaUnavailable("parse IDL", errors.Wrap(err, "invalid IDL document"))
			}
			continue
		}

		var c idlClass
		if err := decoder.DecodeElement(&c, &start); err != nil {
			return nil, errs.SchemaUnavailable("parse IDL", errors.Wrapf(err, "invalid class %s", class))
		}
		names := make([]string, 0, len(c.Fields))
		for _, f := range c.Fields {
			names = append(names, f.Name)
		}
		s.classes[class] = sequenceOf(names)
	}

	for _, c := range classes {
		if _, ok := s.classes[c]; !ok {
			return nil, errs.SchemaUnavailable("parse IDL", errors.Errorf("class is not declared: %s", c))
		}
	}
	return s, nil
}

func sequenceOf(fields []string) map[string]int {
	seq := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := seq[f]; dup {
			continue
		}
		seq[f] = i
	}
	return seq
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (s *Schema) Sequence(class Class, field string) (int, bool) {
	fields, ok := s.classes[class]
	if !ok {
		return 0, false
	}
	i, ok := fields[field]
	return i, ok
}

// Fields returns a copy of the field positions of class, or nil when the
// class is unknown.
func (s *Schema) Fields(class Class) map[string]int {
	fields, ok := s.classes[class]
	if !ok {
		return nil
	}
	return maps.Clone(fields)
}

func (s *Schema) HasClass(class Class) bool {
	_, ok := s.classes[class]
	return ok
}

func (s *Schema) Classes() []Class {
	classes := maps.Keys(s.classes)
	slices.Sort(classes)
	return classes
}
