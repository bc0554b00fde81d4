package kinetics

import (
	"strings"
	"testing"
)

func TestDecodeNetworkJSON_Validates(t *testing.T) {
	good := `{
		"name": "ab",
		"num_species": 2,
		"reactions": [
			{"reactants": [0], "products": [1], "k_forward": 1, "k_reverse": 0.5}
		]
	}`
	cfg, err := DecodeNetworkJSON([]byte(good))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Name != "ab" || cfg.Reactions[0].KReverse != 0.5 {
		t.Errorf("decoded config %+v does not match input", cfg)
	}

	if _, err := DecodeNetworkJSON([]byte(`{"name": "x"`)); err == nil {
		t.Error("expected error for malformed json")
	}

	// structurally valid json, semantically invalid network
	bad := `{"name": "x", "num_species": 2, "reactions": [
		{"reactants": [7], "products": [1], "k_forward": 1, "k_reverse": 1}
	]}`
	if _, err := DecodeNetworkJSON([]byte(bad)); err == nil {
		t.Error("expected validation error for out-of-range species")
	}
}

func TestRunRecordJSONRoundTrip(t *testing.T) {
	rec := RunRecord{
		RunID:       "01TEST",
		NetworkName: "ab",
		Seed:        7,
		Steps:       2,
		Volume:      1e-21,
		Initial: InitialCondition{
			Volume:         1e-21,
			Concentrations: map[SpeciesID]float64{0: 0.5},
		},
		Status:  "complete",
		History: []Event{{Channel: 0, Tau: 0.1}, {Channel: 1, Tau: 0.2}},
		Stats:   WaitingTimeStats{Steps: 2, Mean: 0.15, Total: 0.3},
	}

	data, err := EncodeRunRecordJSON(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// the concentration map must serialize with plain integer keys
	if !strings.Contains(string(data), `"0":0.5`) {
		t.Errorf("initial condition encoding: %s", data)
	}

	got, err := DecodeRunRecordJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != rec.RunID || len(got.History) != 2 || got.History[1].Tau != 0.2 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.Initial.Concentrations[0] != 0.5 {
		t.Errorf("initial condition lost: %+v", got.Initial)
	}
}

func TestValidateRunRecord(t *testing.T) {
	net := abNet(t, 1, 1)

	rec := RunRecord{RunID: "01TEST", History: []Event{{Channel: 1, Tau: 0.1}}}
	if err := ValidateRunRecord(rec, net); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	if err := ValidateRunRecord(RunRecord{}, nil); err == nil {
		t.Error("expected error for empty run id")
	}

	rec.History = []Event{{Channel: 9, Tau: 0.1}}
	if err := ValidateRunRecord(rec, net); err == nil {
		t.Error("expected error for out-of-range channel")
	}
	// without a network the channel range cannot be checked
	if err := ValidateRunRecord(rec, nil); err != nil {
		t.Errorf("nil-network validation: %v", err)
	}
}
