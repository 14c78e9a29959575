package orgunit

import (
	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Unit struct {
	ID          int64
	Name        string
	Named       bool
	ParentID    *int64
	Descendants []int64
}

// Index holds every org unit by id. Descendants of each unit contain all of
// its transitive children, so expanding a unit never walks the tree.
type Index map[int64]*Unit

// Build indexes the tree rooted at root. A malformed branch is logged and
// skipped instead of failing the whole tree.
func Build(root *idl.Record, schema *idl.Schema) Index {
	idx := Index{}
	if root != nil {
		idx.take(root, schema)
	}
	return idx
}

func (idx Index) take(node *idl.Record, schema *idl.Schema) {
	org := schema.Object(node)
	id, ok := org.Int("id")
	if !ok {
		warnMalformed(errors.Errorf("org unit without id: %v", node.Values))
		return
	}

	unit, ok := idx[id]
	if !ok {
		unit = &Unit{ID: id}
		idx[id] = unit
	}
	if name, ok := org.String("name"); ok {
		unit.Name = name
		unit.Named = true
	}
	if parent, ok := org.Int("parent_ou"); ok {
		unit.ParentID = &parent
		idx.addDescendant(id, parent)
	}

	children, _ := org.Get("children")
	for _, child := range sequence(children) {
		rec, ok := child.(*idl.Record)
		if !ok || rec == nil {
			warnMalformed(errors.Errorf("org unit %d has a child that is not an org unit: %v", id, child))
			continue
		}
		idx.take(rec, schema)
	}
}

func sequence(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case []*idl.Record:
		vs := make([]interface{}, len(t))
		for i, rec := range t {
			vs[i] = rec
		}
		return vs
	default:
		return nil
	}
}

func (idx Index) addDescendant(id, parent int64) {
	// a parent chain longer than the index can only be a cycle
	for steps, p := 0, parent; steps <= len(idx); steps++ {
		u, ok := idx[p]
		if !ok {
			warnMalformed(errors.Errorf("org unit %d refers to unknown parent %d", id, p))
			return
		}
		if p == id {
			warnMalformed(errors.Errorf("org unit %d is its own ancestor", id))
			return
		}
		if !slices.Contains(u.Descendants, id) {
			u.Descendants = append(u.Descendants, id)
		}
		if u.ParentID == nil {
			return
		}
		p = *u.ParentID
	}
	warnMalformed(errors.Errorf("org unit %d has a cyclic parent chain", id))
}

func warnMalformed(err error) {
	log.Warn().Err(errs.MalformedTree("build org tree", err)).Msg("skipped org unit branch")
}

// Name reports ok=false for a unit the server sent without a name.
func (idx Index) Name(id int64) (string, bool) {
	u, ok := idx[id]
	if !ok || !u.Named {
		return "", false
	}
	return u.Name, true
}

// WithDescendants returns id followed by all of its descendants, or nil for
// an unknown unit.
func (idx Index) WithDescendants(id int64) []int64 {
	u, ok := idx[id]
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(u.Descendants)+1)
	ids = append(ids, id)
	return append(ids, u.Descendants...)
}

func (idx Index) Clone() Index {
	c := make(Index, len(idx))
	for id, u := range idx {
		cu := *u
		cu.Descendants = slices.Clone(u.Descendants)
		if u.ParentID != nil {
			p := *u.ParentID
			cu.ParentID = &p
		}
		c[id] = &cu
	}
	return c
}

func (idx Index) IDs() []int64 {
	ids := maps.Keys(idx)
	slices.Sort(ids)
	return ids
}

// Roots returns the units without a parent in the index, ordered by id. A
// unit whose parent is unknown heads its own subtree.
func (idx Index) Roots() []*Unit {
	var roots []*Unit
	for _, id := range idx.IDs() {
		u := idx[id]
		if u.ParentID == nil {
			roots = append(roots, u)
			continue
		}
		if _, ok := idx[*u.ParentID]; !ok {
			roots = append(roots, u)
		}
	}
	return roots
}

// Children returns the direct children of id ordered by id.
func (idx Index) Children(id int64) []*Unit {
	var children []*Unit
	for _, cid := range idx.IDs() {
		u := idx[cid]
		if u.ParentID != nil && *u.ParentID == id {
			children = append(children, u)
		}
	}
	return children
}
