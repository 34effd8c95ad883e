package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"
)

// EmbeddingProvider calcula similaridade semântica via um serviço externo de
// sentence embeddings (análogo ao all-MiniLM-L6-v2), com cosseno entre os
// vetores. Vetores são memoizados por texto, o que também garante respostas
// determinísticas dentro do processo.
type EmbeddingProvider struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string][]float64
}

func NewEmbeddingProvider(baseURL string) *EmbeddingProvider {
	return &EmbeddingProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   make(map[string][]float64),
	}
}

func (p *EmbeddingProvider) Name() string       { return "embedding" }
func (p *EmbeddingProvider) Threshold() float64 { return 0.6 }

func (p *EmbeddingProvider) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	va, err := p.embed(a)
	if err != nil {
		return 0
	}
	vb, err := p.embed(b)
	if err != nil {
		return 0
	}

	sim := cosine(va, vb)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *EmbeddingProvider) embed(text string) ([]float64, error) {
	p.mu.Lock()
	if v, ok := p.cache[text]; ok {
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	body, err := json.Marshal(embedRequest{Texts: []string{text}})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Post(p.baseURL+"/embed", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding service: decode: %w", err)
	}
	if len(out.Embeddings) != 1 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding service: empty vector")
	}

	v := out.Embeddings[0]
	p.mu.Lock()
	p.cache[text] = v
	p.mu.Unlock()
	return v, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
