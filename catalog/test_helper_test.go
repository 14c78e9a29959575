package catalog

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mrasu/egholdings/catalog/gateway"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/mrasu/egholdings/catalog/names"
	"github.com/mrasu/egholdings/catalog/orgunit"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	code := m.Run()
	os.Exit(code)
}

// build places named values at the positions the schema declares.
func build(t *testing.T, s *idl.Schema, class idl.Class, values map[string]interface{}) *idl.Record {
	t.Helper()
	rec := &idl.Record{Class: class, Values: make([]interface{}, len(s.Fields(class)))}
	for name, v := range values {
		i, ok := s.Sequence(class, name)
		if !ok {
			t.Fatalf("%s has no field %s", class, name)
		}
		rec.Values[i] = v
	}
	return rec
}

func records(recs ...*idl.Record) []interface{} {
	vs := make([]interface{}, len(recs))
	for i, r := range recs {
		vs[i] = r
	}
	return vs
}

func scenarioSchema() *idl.Schema {
	return idl.NewSchema(map[idl.Class][]string{
		idl.CallNumber:       {"label", "copies"},
		idl.Copy:             {"barcode", "location", "status", "circ_lib", "circulations", "circ_modifier"},
		idl.Circulation:      {"due_date"},
		idl.CopyStatus:       {"id", "name"},
		idl.OrgUnit:          {"children", "id", "name", "parent_ou"},
		idl.ShelvingLocation: {"id", "name"},
	})
}

func failingLocations(context.Context, int64) (*idl.Record, error) {
	return nil, errors.New("location lookups are not expected")
}

func newResolution(t *testing.T, s *idl.Schema, fetch names.LocationFetcher, root *idl.Record) *Resolution {
	t.Helper()
	cache := names.New(s, fetch, zerolog.Nop())
	err := cache.LoadStatuses([]*idl.Record{
		build(t, s, idl.CopyStatus, map[string]interface{}{"id": 0, "name": "Available"}),
		build(t, s, idl.CopyStatus, map[string]interface{}{"id": 1, "name": "Checked out"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &Resolution{Names: cache, OrgUnits: orgunit.Build(root, s)}
}

func readIDL(t *testing.T) []byte {
	t.Helper()
	bs, err := ioutil.ReadFile("idl/testdata/idl.xml")
	if err != nil {
		t.Fatal(err)
	}
	return bs
}

func setPayload(t *testing.T, m *gateway.Memory, req gateway.Request, values ...interface{}) {
	t.Helper()
	if err := m.SetPayload(req, values...); err != nil {
		t.Fatal(err)
	}
}
