package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(NewLogger("error"), nil)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func testNetwork() kinetics.NetworkConfig {
	return kinetics.NetworkConfig{
		Name:       "ab",
		NumSpecies: 2,
		Reactions: []kinetics.ReactionConfig{
			{Reactants: []int{0}, Products: []int{1}, KForward: 1, KReverse: 1},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d, want 200", resp.StatusCode)
	}
}

func TestHandleNetworks(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/networks", testNetwork())
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /networks status %d, want 201", resp.StatusCode)
	}

	// an invalid network must be rejected before registration
	bad := testNetwork()
	bad.Name = "bad"
	bad.Reactions[0].Reactants = []int{5}
	resp = postJSON(t, ts.URL+"/networks", bad)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST invalid network status %d, want 400", resp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/networks")
	if err != nil {
		t.Fatalf("GET /networks: %v", err)
	}
	defer getResp.Body.Close()
	var names []string
	if err := json.NewDecoder(getResp.Body).Decode(&names); err != nil {
		t.Fatalf("decode network list: %v", err)
	}
	if len(names) != 1 || names[0] != "ab" {
		t.Errorf("network list = %v, want [ab]", names)
	}
}

func TestStartRunAndPollToCompletion(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/networks", testNetwork())
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("load network status %d", resp.StatusCode)
	}

	req := map[string]any{
		"network": "ab",
		"steps":   200,
		"seed":    42,
		"label":   "api-test",
		"volume":  1e-21,
		"concentrations": map[string]float64{
			"0": 0.5,
			"1": 0.5,
		},
	}
	resp = postJSON(t, ts.URL+"/runs", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /runs status %d, want 202", resp.StatusCode)
	}
	var rec kinetics.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode run record: %v", err)
	}
	if rec.RunID == "" {
		t.Fatal("started run has no id")
	}
	if rec.Status != "running" {
		t.Errorf("initial status %s, want running", rec.Status)
	}

	// poll until the background goroutine finishes
	deadline := time.Now().Add(10 * time.Second)
	var final kinetics.RunRecord
	for {
		if time.Now().After(deadline) {
			t.Fatalf("run %s did not complete, last status %s", rec.RunID, final.Status)
		}
		getResp, err := http.Get(ts.URL + "/runs/" + rec.RunID)
		if err != nil {
			t.Fatalf("GET /runs/%s: %v", rec.RunID, err)
		}
		err = json.NewDecoder(getResp.Body).Decode(&final)
		getResp.Body.Close()
		if err != nil {
			t.Fatalf("decode run: %v", err)
		}
		if final.Status == "complete" || final.Status == "failed" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if final.Status != "complete" {
		t.Fatalf("run finished with status %s", final.Status)
	}
	if len(final.History) != 200 {
		t.Errorf("run history has %d events, want 200", len(final.History))
	}
	if final.Stats.Steps != 200 {
		t.Errorf("stats report %d steps, want 200", final.Stats.Steps)
	}
	if final.Label != "api-test" || final.Seed != 42 {
		t.Errorf("record lost launch parameters: %+v", final)
	}

	listResp, err := http.Get(ts.URL + "/runs")
	if err != nil {
		t.Fatalf("GET /runs: %v", err)
	}
	defer listResp.Body.Close()
	var list []kinetics.RunRecord
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode run list: %v", err)
	}
	if len(list) != 1 || list[0].RunID != rec.RunID {
		t.Errorf("run list = %+v, want the one started run", list)
	}
	if list[0].History != nil {
		t.Error("run listing included the event history")
	}
}

func TestStartRunRejections(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/runs", map[string]any{"network": "nope", "steps": 10})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown network status %d, want 400", resp.StatusCode)
	}

	loadResp := postJSON(t, ts.URL+"/networks", testNetwork())
	loadResp.Body.Close()

	resp = postJSON(t, ts.URL+"/runs", map[string]any{"network": "ab", "steps": 0})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero steps status %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/runs", map[string]any{
		"network": "ab", "steps": 10, "volume": 1e-21,
		"concentrations": map[string]float64{"x": 0.5},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad species key status %d, want 400", resp.StatusCode)
	}
}

func TestHandleRunByID_NotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/runs/01UNKNOWN")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestHandleNotifiers(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/notifiers", map[string]string{
		"id": "hook", "type": "webhook", "url": "http://127.0.0.1:9/hook",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register webhook status %d, want 201", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/notifiers", map[string]string{
		"id": "x", "type": "smoke-signal", "url": "http://example.com",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported type status %d, want 400", resp.StatusCode)
	}

	listResp, err := http.Get(ts.URL + "/notifiers")
	if err != nil {
		t.Fatalf("GET /notifiers: %v", err)
	}
	defer listResp.Body.Close()
	var ids []string
	if err := json.NewDecoder(listResp.Body).Decode(&ids); err != nil {
		t.Fatalf("decode notifier list: %v", err)
	}
	found := map[string]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found["hook"] || !found[wsNotifierID] {
		t.Errorf("notifier list = %v, want hook and the builtin websocket stream", ids)
	}

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/notifiers/hook", nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	delResp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE /notifiers/hook: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status %d, want 204", delResp.StatusCode)
	}

	// the builtin websocket stream cannot be removed
	del, _ = http.NewRequest(http.MethodDelete, ts.URL+"/notifiers/"+wsNotifierID, nil)
	delResp, err = http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE builtin: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusBadRequest {
		t.Errorf("delete builtin status %d, want 400", delResp.StatusCode)
	}
}

func TestWebSocketStreamsRunSteps(t *testing.T) {
	_, ts := newTestServer(t)

	loadResp := postJSON(t, ts.URL+"/networks", testNetwork())
	loadResp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// registration happens in the upgrade handler after the handshake
	time.Sleep(100 * time.Millisecond)

	resp := postJSON(t, ts.URL+"/runs", map[string]any{
		"network": "ab",
		"steps":   5,
		"seed":    1,
		"volume":  1e-21,
		"concentrations": map[string]float64{
			"0": 0.5,
			"1": 0.5,
		},
	})
	var rec kinetics.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode run record: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 5; i++ {
		var note kinetics.RunNotification
		if err := conn.ReadJSON(&note); err != nil {
			t.Fatalf("read step %d from websocket: %v", i, err)
		}
		if note.RunID != rec.RunID {
			t.Errorf("streamed step belongs to run %s, want %s", note.RunID, rec.RunID)
		}
		if note.Step.Step != i {
			t.Errorf("streamed step %d out of order, want %d", note.Step.Step, i)
		}
	}
}
