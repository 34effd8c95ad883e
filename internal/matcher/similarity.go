package matcher

import "strings"

// SimilarityProvider é o backend plugável de similaridade textual usado pelo
// matcher. Similarity devolve um valor em [0,1] (1.0 = idênticos) e precisa
// ser determinístico pra entradas fixas. O limiar mínimo de aceitação é
// propriedade do backend, não uma constante global: o provider de embeddings
// trabalha com 0.6, o fallback por sequência com 0.7.
type SimilarityProvider interface {
	Similarity(a, b string) float64
	Threshold() float64
	Name() string
}

// SequenceProvider é o fallback por similaridade de sequência de caracteres
// (razão de caracteres casados, no espírito do SequenceMatcher).
type SequenceProvider struct{}

func NewSequenceProvider() *SequenceProvider { return &SequenceProvider{} }

func (p *SequenceProvider) Name() string       { return "sequence" }
func (p *SequenceProvider) Threshold() float64 { return 0.7 }

// Similarity calcula 2*M/T, onde M é o total de caracteres casados em blocos
// comuns e T a soma dos comprimentos. Comparação é case-insensitive.
func (p *SequenceProvider) Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	matched := matchingChars([]rune(a), []rune(b))
	return 2.0 * float64(matched) / float64(len([]rune(a))+len([]rune(b)))
}

// matchingChars soma os blocos comuns recursivamente: acha o maior bloco
// contíguo comum e recorre nas fatias à esquerda e à direita dele.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

// longestBlock encontra o maior bloco contíguo comum entre a e b.
func longestBlock(a, b []rune) (bestA, bestB, bestSize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// comprimento do prefixo comum terminando em (i, j)
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestSize = cur[j]
					bestA = i - bestSize
					bestB = j - bestSize
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, bestSize
}
