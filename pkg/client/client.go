// Package client provides a Go client for the rxnsim server, plus a
// fluent builder for assembling network configs in code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

// NetworkBuilder assembles a network config reaction by reaction.
type NetworkBuilder struct {
	name       string
	numSpecies int
	reactions  []kinetics.ReactionConfig
}

// NewNetwork creates a builder for a network with the given name and
// species count.
func NewNetwork(name string, numSpecies int) *NetworkBuilder {
	return &NetworkBuilder{name: name, numSpecies: numSpecies}
}

// Reaction adds a reversible reaction. Reactants and products each take
// 1 or 2 species ids; repeat an id to express an identical pair.
func (nb *NetworkBuilder) Reaction(reactants, products []int, kForward, kReverse float64) *NetworkBuilder {
	nb.reactions = append(nb.reactions, kinetics.ReactionConfig{
		Reactants: reactants,
		Products:  products,
		KForward:  kForward,
		KReverse:  kReverse,
	})
	return nb
}

// Build returns the assembled network config.
func (nb *NetworkBuilder) Build() kinetics.NetworkConfig {
	return kinetics.NetworkConfig{
		Name:       nb.name,
		NumSpecies: nb.numSpecies,
		Reactions:  nb.reactions,
	}
}

// RunRequest are the launch parameters for a run on the server.
type RunRequest struct {
	Network        string          `json:"network"`
	Steps          int             `json:"steps"`
	Seed           int64           `json:"seed,omitempty"`
	Label          string          `json:"label,omitempty"`
	Volume         float64         `json:"volume"`
	Concentrations map[int]float64 `json:"-"`
	Notifiers      []string        `json:"notifiers,omitempty"`
}

// MarshalJSON flattens the concentration map to the string-keyed form the
// server expects.
func (r RunRequest) MarshalJSON() ([]byte, error) {
	type alias RunRequest
	concs := make(map[string]float64, len(r.Concentrations))
	for id, c := range r.Concentrations {
		concs[strconv.Itoa(id)] = c
	}
	return json.Marshal(struct {
		alias
		Concentrations map[string]float64 `json:"concentrations"`
	}{alias(r), concs})
}

// Client talks to a rxnsim server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: http.DefaultClient}
}

// NewWithHTTPClient creates a client using a custom http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// LoadNetwork uploads and compiles a network config on the server.
func (c *Client) LoadNetwork(ctx context.Context, cfg kinetics.NetworkConfig) error {
	return c.do(ctx, http.MethodPost, "/networks", cfg, nil)
}

// ListNetworks returns the names of the networks loaded on the server.
func (c *Client) ListNetworks(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/networks", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// StartRun launches a run and returns its record in the running state.
func (c *Client) StartRun(ctx context.Context, req RunRequest) (kinetics.RunRecord, error) {
	var rec kinetics.RunRecord
	if err := c.do(ctx, http.MethodPost, "/runs", req, &rec); err != nil {
		return kinetics.RunRecord{}, err
	}
	return rec, nil
}

// GetRun fetches a run record, event history included.
func (c *Client) GetRun(ctx context.Context, id string) (kinetics.RunRecord, error) {
	var rec kinetics.RunRecord
	if err := c.do(ctx, http.MethodGet, "/runs/"+id, nil, &rec); err != nil {
		return kinetics.RunRecord{}, err
	}
	return rec, nil
}

// ListRuns fetches all run records known to the server, histories omitted.
func (c *Client) ListRuns(ctx context.Context) ([]kinetics.RunRecord, error) {
	var recs []kinetics.RunRecord
	if err := c.do(ctx, http.MethodGet, "/runs", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
