package structs

import "strconv"

// Ref is a catalog id that may be replaced by its display name. Once named it
// stays named.
type Ref struct {
	ID    int64
	Name  string
	Named bool
}

func NumericRef(id int64) *Ref {
	return &Ref{ID: id}
}

func NamedRef(name string) *Ref {
	return &Ref{Name: name, Named: true}
}

func (r *Ref) IsNumeric() bool {
	return !r.Named
}

func (r *Ref) Resolve(name string) {
	if r.Named {
		return
	}
	r.Name = name
	r.Named = true
}

func (r *Ref) String() string {
	if r == nil {
		return ""
	}
	if r.Named {
		return r.Name
	}
	return strconv.FormatInt(r.ID, 10)
}

// Item is one physical copy. Fields missing from the server response stay nil.
type Item struct {
	Barcode      string
	CallNumber   string
	Location     *Ref
	Status       *Ref
	OwningLib    *Ref
	CircModifier *string
	DueDate      *string
}
