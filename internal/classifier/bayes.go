package classifier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// multinomialNB is a multinomial naive Bayes model with additive smoothing,
// fitted on fractional (tf-idf) feature counts.
type multinomialNB struct {
	classes  []string
	logPrior []float64
	logProb  [][]float64
}

func fitMultinomialNB(xs []sparseVector, labels []string, nFeatures int, alpha float64) *multinomialNB {
	classes := distinctLabelsOf(labels)
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}

	counts := make([]float64, len(classes))
	featureCounts := make([][]float64, len(classes))
	for i := range featureCounts {
		featureCounts[i] = make([]float64, nFeatures)
	}
	for i, x := range xs {
		c := idx[labels[i]]
		counts[c]++
		for j, w := range x {
			featureCounts[c][j] += w
		}
	}

	m := &multinomialNB{
		classes:  classes,
		logPrior: make([]float64, len(classes)),
		logProb:  make([][]float64, len(classes)),
	}
	total := floats.Sum(counts)
	for c := range classes {
		m.logPrior[c] = math.Log(counts[c] / total)
		denom := math.Log(floats.Sum(featureCounts[c]) + alpha*float64(nFeatures))
		m.logProb[c] = make([]float64, nFeatures)
		for j, fc := range featureCounts[c] {
			m.logProb[c][j] = math.Log(fc+alpha) - denom
		}
	}
	return m
}

// predictProba returns the posterior probability of every class, in class
// order.
func (m *multinomialNB) predictProba(x sparseVector) []float64 {
	jll := make([]float64, len(m.classes))
	for c := range m.classes {
		s := m.logPrior[c]
		for j, w := range x {
			s += w * m.logProb[c][j]
		}
		jll[c] = s
	}
	norm := floats.LogSumExp(jll)
	for c := range jll {
		jll[c] = math.Exp(jll[c] - norm)
	}
	return jll
}

func distinctLabelsOf(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func distinctLabels(examples []Example) []string {
	labels := make([]string, len(examples))
	for i, e := range examples {
		labels[i] = e.Category
	}
	return distinctLabelsOf(labels)
}
