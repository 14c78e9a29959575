package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/mrasu/egholdings/catalog/names"
	"github.com/mrasu/egholdings/catalog/orgunit"
	"github.com/mrasu/egholdings/catalog/structs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Library is an org unit together with the copies it owns in one Status.
type Library struct {
	orgunit.Unit
	Copies []*structs.Item
}

// Resolution is what a Status needs to turn ids into names.
type Resolution struct {
	Names    *names.Cache
	OrgUnits orgunit.Index
}

// ResolveLocation names a numeric location. A location that cannot be
// fetched keeps its id.
func (r *Resolution) ResolveLocation(ctx context.Context, ref *structs.Ref) {
	if ref == nil || !ref.IsNumeric() || r.Names == nil {
		return
	}
	if name, ok := r.Names.LocationName(ctx, ref.ID); ok {
		ref.Resolve(name)
	}
}

func (r *Resolution) ResolveStatus(ref *structs.Ref) {
	if ref == nil || !ref.IsNumeric() || r.Names == nil {
		return
	}
	if name, ok := r.Names.StatusName(ref.ID); ok {
		ref.Resolve(name)
	}
}

func (r *Resolution) ResolveOwningLib(ref *structs.Ref) {
	if ref == nil || !ref.IsNumeric() {
		return
	}
	if name, ok := r.OrgUnits.Name(ref.ID); ok {
		ref.Resolve(name)
	}
}

// Status is every copy attached to one bibliographic record.
type Status struct {
	Copies    []*structs.Item
	Libraries map[int64]*Library

	resolved    bool
	availableID *int64
}

type statusOptions struct {
	ctx         context.Context
	resolution  *Resolution
	availableID *int64
}

type StatusOption func(*statusOptions)

func WithResolution(ctx context.Context, res *Resolution) StatusOption {
	return func(o *statusOptions) {
		o.ctx = ctx
		o.resolution = res
	}
}

// WithAvailableStatus sets the status id treated as available when copies
// are not resolved to names.
func WithAvailableStatus(id int64) StatusOption {
	return func(o *statusOptions) {
		o.availableID = &id
	}
}

// DecodeStatus decodes a copy tree: a sequence of call numbers each embedding
// its copies.
func DecodeStatus(tree []interface{}, schema *idl.Schema, opts ...StatusOption) *Status {
	o := &statusOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Status{
		Copies:      extractCopies(tree, schema),
		availableID: o.availableID,
	}
	if o.resolution != nil {
		s.substituteNames(o.ctx, o.resolution)
	}
	return s
}

func extractCopies(tree []interface{}, schema *idl.Schema) []*structs.Item {
	items := []*structs.Item{}
	for _, v := range tree {
		cn, ok := v.(*idl.Record)
		if !ok {
			continue
		}
		acn := schema.Object(cn)
		copies, ok := acn.Records("copies")
		if !ok || len(copies) == 0 {
			continue
		}

		label, _ := acn.String("label")
		for _, cp := range copies {
			items = append(items, decodeItem(schema, cp, label))
		}
	}
	return items
}

func decodeItem(schema *idl.Schema, rec *idl.Record, callNumber string) *structs.Item {
	acp := schema.Object(rec)
	item := &structs.Item{
		CallNumber: callNumber,
		Location:   refOf(schema, acp, "location"),
		Status:     refOf(schema, acp, "status"),
		OwningLib:  refOf(schema, acp, "circ_lib"),
	}
	item.Barcode, _ = acp.String("barcode")
	if m, ok := acp.String("circ_modifier"); ok {
		item.CircModifier = &m
	}

	due, err := dueDate(schema, acp)
	if err != nil {
		log.Debug().Err(err).Str("barcode", item.Barcode).Msg("copy decoded without due date")
	} else if due != nil {
		item.DueDate = due
	}
	return item
}

// dueDate reads the due date of the first circulation. No circulation is not
// an error; a circulation that cannot be decoded is.
func dueDate(schema *idl.Schema, acp idl.Object) (*string, error) {
	v, ok := acp.Get("circulations")
	if !ok {
		return nil, nil
	}
	var first interface{}
	switch circs := v.(type) {
	case []interface{}:
		if len(circs) == 0 {
			return nil, nil
		}
		first = circs[0]
	case []*idl.Record:
		if len(circs) == 0 {
			return nil, nil
		}
		first = circs[0]
	default:
		return nil, nil
	}

	circ, ok := first.(*idl.Record)
	if !ok || circ == nil {
		return nil, errs.SubrecordDecodeFailure("decode circulation", errors.Errorf("not a circulation: %v", first))
	}
	due, ok := schema.Object(circ).String("due_date")
	if !ok {
		return nil, errs.SubrecordDecodeFailure("decode circulation", errors.New("circulation without due_date"))
	}
	return &due, nil
}

// refOf keeps numbers as ids and strings as names. A fleshed record is named
// by its own name field.
func refOf(schema *idl.Schema, o idl.Object, field string) *structs.Ref {
	v, ok := o.Get(field)
	if !ok || v == nil {
		return nil
	}
	if id, ok := idl.Int(v); ok {
		return structs.NumericRef(id)
	}
	switch t := v.(type) {
	case string:
		return structs.NamedRef(t)
	case *idl.Record:
		if name, ok := schema.Object(t).String("name"); ok {
			return structs.NamedRef(name)
		}
	}
	return nil
}

func (s *Status) substituteNames(ctx context.Context, res *Resolution) {
	s.resolved = true
	s.Libraries = map[int64]*Library{}
	for id, u := range res.OrgUnits.Clone() {
		s.Libraries[id] = &Library{Unit: *u, Copies: []*structs.Item{}}
	}

	for _, item := range s.Copies {
		res.ResolveLocation(ctx, item.Location)
		res.ResolveStatus(item.Status)

		if item.OwningLib == nil || !item.OwningLib.IsNumeric() {
			continue
		}
		lib, ok := s.Libraries[item.OwningLib.ID]
		if !ok {
			log.Debug().Int64("org_unit", item.OwningLib.ID).Str("barcode", item.Barcode).Msg("copy owned by unknown org unit")
			continue
		}
		lib.Copies = append(lib.Copies, item)
		if lib.Named {
			item.OwningLib.Resolve(lib.Name)
		}
	}
}

func (s *Status) Resolved() bool {
	return s.resolved
}

// AnyCopiesAvailable reports whether any copy can be borrowed.
func (s *Status) AnyCopiesAvailable() bool {
	for _, item := range s.Copies {
		if s.isAvailable(item) {
			return true
		}
	}
	return false
}

func (s *Status) AvailableCopies() []*structs.Item {
	var items []*structs.Item
	for _, item := range s.Copies {
		if s.isAvailable(item) {
			items = append(items, item)
		}
	}
	return items
}

func (s *Status) isAvailable(item *structs.Item) bool {
	if item.Status == nil {
		return false
	}
	if item.Status.Named {
		return item.Status.Name == names.AvailableStatus
	}
	if s.resolved || s.availableID == nil {
		return false
	}
	return item.Status.ID == *s.availableID
}

// LibrariesWithCopies returns the libraries owning at least one copy, ordered
// by org unit id.
func (s *Status) LibrariesWithCopies() []*Library {
	ids := maps.Keys(s.Libraries)
	slices.Sort(ids)

	var libs []*Library
	for _, id := range ids {
		if lib := s.Libraries[id]; len(lib.Copies) > 0 {
			libs = append(libs, lib)
		}
	}
	return libs
}

func (s *Status) Inspect(w io.Writer) {
	fmt.Fprintln(w, "<==========Inspect")
	for i, item := range s.Copies {
		fmt.Fprintf(w, "==== %d ====\n", i)
		fmt.Fprintf(w, "barcode\t: %s\n", item.Barcode)
		fmt.Fprintf(w, "call_number\t: %s\n", item.CallNumber)
		fmt.Fprintf(w, "location\t: %s\n", item.Location)
		fmt.Fprintf(w, "status\t: %s\n", item.Status)
		fmt.Fprintf(w, "owning_lib\t: %s\n", item.OwningLib)
		if item.CircModifier != nil {
			fmt.Fprintf(w, "circ_modifier\t: %s\n", *item.CircModifier)
		}
		if item.DueDate != nil {
			fmt.Fprintf(w, "due_date\t: %s\n", *item.DueDate)
		}
	}
	fmt.Fprintf(w, "available\t: %t\n", s.AnyCopiesAvailable())
}
