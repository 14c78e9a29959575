package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/mrasu/egholdings/thelper"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	code := m.Run()
	os.Exit(code)
}

func TestRequest_Key(t *testing.T) {
	req := MethodRequest("open-ils.cat", "open-ils.cat.asset.copy_tree.retrieve", "auth", "23405", "4", "5")
	thelper.AssertString(t, "Invalid key",
		"/osrf-gateway-v1?format=json&input_format=json&method=open-ils.cat.asset.copy_tree.retrieve&param=auth&param=23405&param=4&param=5&service=open-ils.cat",
		req.Key())
	thelper.AssertString(t, "Invalid method", "open-ils.cat.asset.copy_tree.retrieve", req.Method())
	thelper.AssertInt(t, "Invalid params", 4, len(req.Params()))

	thelper.AssertString(t, "Invalid IDL key", "/reports/fm_IDL.xml", IDLRequest().Key())
}

func TestDecodePayload(t *testing.T) {
	body := `{"payload":[[{"__c":"acn","__p":[[{"__c":"acp","__p":["12345",7,null,[]]}],"QA76"]}]],"status":200}`
	payload, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	thelper.AssertInt(t, "Invalid payload size", 1, len(payload))

	tree, ok := payload[0].([]interface{})
	if !ok {
		t.Fatalf("Payload is not a sequence: %T", payload[0])
	}
	acn, ok := tree[0].(*idl.Record)
	if !ok {
		t.Fatalf("Call number is not a record: %T", tree[0])
	}
	thelper.AssertString(t, "Invalid class", "acn", string(acn.Class))
	thelper.AssertString(t, "Invalid label", "QA76", acn.Values[1].(string))

	copies, ok := idl.Records(acn.Values[0])
	if !ok || len(copies) != 1 {
		t.Fatalf("Invalid copies: %v", acn.Values[0])
	}
	thelper.AssertString(t, "Invalid copy class", "acp", string(copies[0].Class))
	if n, ok := copies[0].Values[1].(json.Number); !ok || n.String() != "7" {
		t.Errorf("Number is not kept as json.Number: %#v", copies[0].Values[1])
	}
	if copies[0].Values[2] != nil {
		t.Errorf("null is not nil: %#v", copies[0].Values[2])
	}
}

func TestDecodePayload_Failures(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"payload":[],"status":500,"debug":"boom"}`,
		`{"payload":[{"__c":"osrfMethodException","__p":{"status":"not found","statusCode":404}}],"status":200}`,
		`{"payload":[{"ilsevent":1001,"textcode":"ASSET_COPY_LOCATION_NOT_FOUND","stacktrace":"..."}],"status":200}`,
	}
	for _, body := range bodies {
		_, err := DecodePayload([]byte(body))
		thelper.AssertError(t, body, err)
		thelper.AssertBool(t, "Invalid kind for "+body, true, errs.Is(err, errs.KindTransportFailure))
	}
}

func TestEncodePayload(t *testing.T) {
	rec := idl.NewRecord(idl.Copy, "12345", 7, []interface{}{idl.NewRecord(idl.Circulation, "2024-01-01")})
	bs, err := EncodePayload([]*idl.Record{rec})
	if err != nil {
		t.Fatal(err)
	}

	payload, err := DecodePayload(bs)
	if err != nil {
		t.Fatal(err)
	}
	recs, ok := idl.Records(payload[0])
	if !ok || len(recs) != 1 {
		t.Fatalf("Invalid payload: %v", payload)
	}
	circs, _ := idl.Records(recs[0].Values[2])
	thelper.AssertInt(t, "Invalid circulation size", 1, len(circs))
	thelper.AssertString(t, "Invalid due date", "2024-01-01", circs[0].Values[0].(string))
}

func TestFirst(t *testing.T) {
	if _, ok := First(nil); ok {
		t.Error("First of empty payload")
	}
	v, ok := First([]interface{}{"a", "b"})
	thelper.AssertBool(t, "First", true, ok)
	thelper.AssertString(t, "First", "a", v.(string))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	req := MethodRequest("open-ils.circ", "open-ils.circ.copy_location.retrieve", "7")
	m.Set(req, []byte("ok"))

	bs, err := m.Fetch(context.Background(), req)
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "Invalid body", "ok", string(bs))

	m.Fail(req, errors.New("down"))
	_, err = m.Fetch(context.Background(), req)
	thelper.AssertBool(t, "Failure kind", true, errs.Is(err, errs.KindTransportFailure))

	_, err = m.Fetch(context.Background(), IDLRequest())
	thelper.AssertError(t, "Unknown request", err)

	thelper.AssertInt(t, "Invalid count", 2, m.Count(req))
	m.Clear()
	thelper.AssertInt(t, "Count after clear", 0, m.Count(req))
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case IDLPath:
			_, _ = w.Write([]byte("<IDL/>"))
		case GatewayPath:
			if r.URL.Query().Get("method") != "open-ils.actor.org_tree.retrieve" {
				http.Error(w, "unknown method", http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"payload":[],"status":200}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	bs, err := c.Fetch(context.Background(), IDLRequest())
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "Invalid IDL body", "<IDL/>", string(bs))

	bs, err = c.Fetch(context.Background(), MethodRequest("open-ils.actor", "open-ils.actor.org_tree.retrieve"))
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "Invalid gateway body", `{"payload":[],"status":200}`, string(bs))

	_, err = c.Fetch(context.Background(), MethodRequest("open-ils.actor", "nope"))
	thelper.AssertBool(t, "404 kind", true, errs.Is(err, errs.KindTransportFailure))
}

func TestClient_Fetch_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Fetch(context.Background(), IDLRequest())
	thelper.AssertBool(t, "Refused kind", true, errs.Is(err, errs.KindTransportFailure))
}

func TestRecorderAndDir(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewMemory()
	short := IDLRequest()
	long := MethodRequest("open-ils.cat", "open-ils.cat.asset.copy_tree.retrieve", make([]string, 100)...)
	m.Set(short, []byte("<IDL/>"))
	m.Set(long, []byte("tree"))

	r := NewRecorder(m, d)
	for _, req := range []Request{short, long} {
		_, err := r.Fetch(context.Background(), req)
		thelper.AssertNoError(t, err)
	}

	bs, err := d.Fetch(context.Background(), short)
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "Replayed IDL", "<IDL/>", string(bs))
	bs, err = d.Fetch(context.Background(), long)
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "Replayed long key", "tree", string(bs))

	_, err = d.Fetch(context.Background(), MethodRequest("x", "y"))
	thelper.AssertBool(t, "Missing recording kind", true, errs.Is(err, errs.KindTransportFailure))

	_, err = NewDir("/does/not/exist")
	thelper.AssertError(t, "Missing directory", err)
}
