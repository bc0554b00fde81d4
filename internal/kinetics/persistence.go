package kinetics

import (
	"encoding/json"
	"fmt"
)

// RunRecord is a point-in-time capture of a completed (or aborted) run:
// everything needed to replay it against the same compiled network.
type RunRecord struct {
	RunID       string           `json:"run_id"`
	Label       string           `json:"label,omitempty"`
	NetworkName string           `json:"network_name"`
	Seed        int64            `json:"seed"`
	Steps       int              `json:"steps"`
	Volume      float64          `json:"volume"`
	Initial     InitialCondition `json:"initial"`
	Status      string           `json:"status"`
	History     []Event          `json:"history"`
	Stats       WaitingTimeStats `json:"stats"`
	WallSeconds float64          `json:"wall_seconds"`
}

// EncodeNetworkJSON encodes a network config to JSON.
func EncodeNetworkJSON(cfg NetworkConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode network: %w", err)
	}
	return data, nil
}

// DecodeNetworkJSON decodes and validates a network config from JSON.
func DecodeNetworkJSON(data []byte) (NetworkConfig, error) {
	var cfg NetworkConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return NetworkConfig{}, fmt.Errorf("failed to decode network: %w", err)
	}
	if err := ValidateNetworkConfig(cfg); err != nil {
		return NetworkConfig{}, err
	}
	return cfg, nil
}

// EncodeRunRecordJSON encodes a run record to JSON.
func EncodeRunRecordJSON(rec RunRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run record: %w", err)
	}
	return data, nil
}

// DecodeRunRecordJSON decodes a run record from JSON.
func DecodeRunRecordJSON(data []byte) (RunRecord, error) {
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("failed to decode run record: %w", err)
	}
	return rec, nil
}

// ValidateRunRecord checks a run record against a compiled network, when
// one is provided: channel indices must exist and the record must carry an
// id. With a nil network only the id is checked.
func ValidateRunRecord(rec RunRecord, net *Network) error {
	if rec.RunID == "" {
		return fmt.Errorf("run record has empty id")
	}
	if net != nil {
		for i, ev := range rec.History {
			if ev.Channel < 0 || int(ev.Channel) >= net.NumChannels() {
				return fmt.Errorf("event %d references unknown channel %d", i, ev.Channel)
			}
		}
	}
	return nil
}
