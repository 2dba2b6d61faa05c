package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// sparseVector maps a vocabulary index to its weight.
type sparseVector map[int]float64

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// vectorizer turns text into L2-normalised tf-idf vectors over a fixed
// vocabulary learned from the training documents.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
}

func fitVectorizer(docs []string, maxFeatures int) *vectorizer {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc) {
			termFreq[tok]++
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return termFreq[terms[i]] > termFreq[terms[j]]
		})
		terms = terms[:maxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(docs))
	v := &vectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return v
}

func (v *vectorizer) size() int {
	return len(v.idf)
}

// transform returns the tf-idf vector of doc. Terms outside the vocabulary
// are ignored, so the result may be empty.
func (v *vectorizer) transform(doc string) sparseVector {
	out := make(sparseVector)
	for _, tok := range tokenize(doc) {
		if i, ok := v.vocab[tok]; ok {
			out[i]++
		}
	}
	var norm float64
	for i, tf := range out {
		w := tf * v.idf[i]
		out[i] = w
		norm += w * w
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}
