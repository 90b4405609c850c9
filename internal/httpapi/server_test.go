package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gatehouse-project/gatehouse/internal/export"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
	"github.com/gatehouse-project/gatehouse/internal/httpapi"
	"github.com/gatehouse-project/gatehouse/internal/metrics"
)

// newTestServer wires up the full dependency graph using in-memory stores
// and returns an httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T, people []store.Person) *httptest.Server {
	t.Helper()

	tab := memory.NewTabularStore()
	ledger := store.NewLedger(tab, "AccessLog", "AccessLogArchive", store.DefaultColumns())
	if err := ledger.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}

	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(people))
	logger := log.New(io.Discard, "", 0)
	engine := service.NewEngine(ledger, tab, dir, export.DiscardSink{}, logger, service.Options{})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    ":0",
		Engine:  engine,
		Metrics: metrics.New(prometheus.NewRegistry()),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testPeople() []store.Person {
	return []store.Person{
		{ID: "8-123-456", Name: "Dana Rivers", Organization: "Operations", Active: true},
	}
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestScan_KnownPerson_OK(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/scan", `{"id":"8-123-456","action":"check-in"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var scanResp types.ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&scanResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !scanResp.OK {
		t.Error("expected ok=true")
	}
	if scanResp.Flow != service.FlowCheckIn {
		t.Errorf("expected flow=%s, got %s", service.FlowCheckIn, scanResp.Flow)
	}
	if scanResp.Name != "Dana Rivers" {
		t.Errorf("expected name=Dana Rivers, got %q", scanResp.Name)
	}
}

func TestScan_UnknownPerson_RequiresRegistration(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/scan", `{"id":"0-000-000","action":"check-in"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var scanResp types.ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&scanResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !scanResp.RequiresInput {
		t.Error("expected requires_input=true")
	}
	if scanResp.InputKind != service.InputVisitorRegistration {
		t.Errorf("expected input_kind=%s, got %s", service.InputVisitorRegistration, scanResp.InputKind)
	}
}

func TestScan_MissingID_400(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/scan", `{"action":"check-in"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestScan_InvalidJSON_400(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/scan", `not json at all`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestScan_UnknownField_400(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/scan", `{"id":"8-123-456","action":"check-in","extra":true}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}
}

func TestVisitorFlow_EndToEnd(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/visitor",
		`{"id":"0-000-000","name":"Sam Porter","organization":"Courier Co","reason":"delivery","action":"check-in"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var vResp types.ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vResp.Status != store.StatusTemporary {
		t.Errorf("expected status=%s, got %s", store.StatusTemporary, vResp.Status)
	}

	// The visitor now shows up in the presence snapshot.
	insideResp, err := http.Get(ts.URL + "/v1/inside")
	if err != nil {
		t.Fatalf("get inside: %v", err)
	}
	defer insideResp.Body.Close()

	var inside types.InsideResponse
	if err := json.NewDecoder(insideResp.Body).Decode(&inside); err != nil {
		t.Fatalf("decode inside: %v", err)
	}
	if inside.Total != 1 || inside.People[0].ID != "0-000-000" {
		t.Errorf("expected the visitor inside, got %+v", inside)
	}
}

func TestJustified_UnknownPerson_404(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/justified", `{"id":"0-000-000","comment":"missed scan"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestJustified_MissingComment_400(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/justified", `{"id":"8-123-456","comment":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEvacuation_Drill_OK(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/evacuation", `{"ids":["8-123-456"],"mode":"SIMULACRO"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var evResp types.EvacuationResponse
	if err := json.NewDecoder(resp.Body).Decode(&evResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evResp.Processed != 1 {
		t.Errorf("expected processed=1, got %d", evResp.Processed)
	}
	if evResp.DrillTable == "" {
		t.Error("expected a drill table name")
	}
}

func TestEvacuation_UnknownMode_400(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp := postJSON(t, ts.URL+"/v1/evacuation", `{"ids":["8-123-456"],"mode":"FIRE"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestShiftClose_OK(t *testing.T) {
	ts := newTestServer(t, testPeople())

	postJSON(t, ts.URL+"/v1/scan", `{"id":"8-123-456","action":"check-in"}`)

	resp := postJSON(t, ts.URL+"/v1/shift_close", `{"operator":"guard-7"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var scResp types.ShiftCloseResponse
	if err := json.NewDecoder(resp.Body).Decode(&scResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if scResp.Rows != 1 {
		t.Errorf("expected 1 exported row, got %d", scResp.Rows)
	}

	// The stats view starts over after a close.
	statsResp, err := http.Get(ts.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer statsResp.Body.Close()

	var stats types.StatsResponse
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Stats.Entries != 0 || stats.Stats.Inside != 0 {
		t.Errorf("expected empty stats after shift close, got %+v", stats.Stats)
	}
}

func TestRequestIDEchoedBack(t *testing.T) {
	ts := newTestServer(t, testPeople())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/stats", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-ID", "req-42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("expected request id echoed back, got %q", got)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	ts := newTestServer(t, testPeople())

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
