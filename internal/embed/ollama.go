// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	braiderr "github.com/braid-db/braid/pkg/errors"
)

// Compile-time interface check.
var _ Provider = (*OllamaClient)(nil)

// OllamaClient talks to Ollama's native /api/embed endpoint. The endpoint
// accepts an array of inputs and returns one embedding per input in order,
// so a whole ingest batch costs a single round trip.
type OllamaClient struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

// NewOllamaClient creates a client for the given Ollama host and embedding
// model. dims is the expected vector width for the model; responses with a
// different width are rejected rather than truncated or padded.
func NewOllamaClient(baseURL, model string, dims int, timeout time.Duration) *OllamaClient {
	host := strings.TrimSuffix(baseURL, "/")
	host = strings.TrimSuffix(host, "/v1")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaClient{
		baseURL: host,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: timeout},
	}
}

// Dimensions reports the vector width this client expects from the model.
func (c *OllamaClient) Dimensions() int {
	return c.dims
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed requests embeddings for all texts in one call.
func (c *OllamaClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeEmbedUpstreamFailure, "marshalling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeEmbedUpstreamFailure, "creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, braiderr.Errorf(braiderr.CodeEmbedUpstreamFailure, "calling embedding provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, braiderr.New(braiderr.CodeEmbedUpstreamFailure,
			"embedding provider returned an error",
			braiderr.Field("status", resp.StatusCode),
			braiderr.Field("body", strings.TrimSpace(string(respBody))),
			braiderr.Field("model", c.model),
		)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, braiderr.Errorf(braiderr.CodeEmbedResponseInvalid, "decoding embed response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, braiderr.New(braiderr.CodeEmbedResponseInvalid,
			"embedding count does not match input count",
			braiderr.Field("want", len(texts)),
			braiderr.Field("got", len(result.Embeddings)),
		)
	}

	for i, vec := range result.Embeddings {
		if len(vec) != c.dims {
			return nil, braiderr.New(braiderr.CodeEmbedResponseInvalid,
				"embedding has unexpected dimension",
				braiderr.Field("index", i),
				braiderr.Field("want", c.dims),
				braiderr.Field("got", len(vec)),
			)
		}
	}

	return result.Embeddings, nil
}
