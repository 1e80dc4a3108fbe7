package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Embedder is a TF-IDF vectorizer with sublinear term-frequency scaling.
// Prepare must be called with the full corpus (chunk texts plus catalog
// texts) before Embed; the vocabulary is frozen afterwards.
type Embedder struct {
	vocab    map[string]int
	idf      []float64
	prepared bool
	tokenRe  *regexp.Regexp
	stop     map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		tokenRe: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`),
		stop:    stopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and smoothed IDF weights from the corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("tfidf: empty corpus")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("tfidf: no tokens in corpus")
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms) // stable vocabulary ordering
	e.vocab = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocab[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	e.prepared = true
	return nil
}

// Dimension returns the vocabulary size once prepared.
func (e *Embedder) Dimension() int { return len(e.idf) }

// Embed computes the L2-normalized TF-IDF vector for text. Text sharing
// no vocabulary with the corpus embeds to the zero vector.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf: embedder not prepared")
	}
	counts := make(map[int]int)
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocab[tok]; ok {
			counts[idx]++
		}
	}
	vec := make([]float64, len(e.idf))
	norm := 0.0
	for idx, c := range counts {
		// sublinear tf
		v := (1 + math.Log(float64(c))) * e.idf[idx]
		vec[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			vec[idx] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, isStop := e.stop[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := strings.Fields(
		"a an the and or but if then else for to of in on at by with as " +
			"is are was were be been being it this that these those from " +
			"up down over under than so such into about between through " +
			"during before after above below out off own same too very " +
			"can will just should now what how")
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
