// Package classifier maps free-text expense descriptions to spending
// categories using a tf-idf + multinomial naive Bayes model trained on a
// fixed bootstrap corpus, with a keyword table as fallback.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"spese-insights/internal/core"
)

const (
	// Alpha is the additive smoothing applied to feature counts.
	Alpha = 0.1
	// MaxFeatures caps the vocabulary size.
	MaxFeatures = 1000

	// AlternativeThreshold is the raw probability a class needs to be
	// listed as an alternative.
	AlternativeThreshold = 0.1

	keywordConfidence = 0.8
	otherConfidence   = 0.5
	fullLengthWords   = 5
)

// Method tells how a category was chosen.
type Method string

const (
	MethodNaiveBayes Method = "naive_bayes"
	MethodKeyword    Method = "keyword"
)

var errNoFeatures = errors.New("description has no known terms")

type (
	// Suggestion is an alternative category with its raw probability.
	Suggestion struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}

	Result struct {
		Category     string       `json:"category"`
		Confidence   float64      `json:"confidence"`
		Alternatives []Suggestion `json:"suggested_categories"`
		Method       Method       `json:"method"`
		Status       core.Status  `json:"status"`
		Reason       string       `json:"reason,omitempty"`
	}
)

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	vec   *vectorizer
	model *multinomialNB
}

// New trains a classifier on the given examples. At least two distinct
// categories are required.
func New(examples []Example) (*Classifier, error) {
	if len(examples) == 0 {
		return nil, errors.New("no training examples")
	}
	docs := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, e := range examples {
		if strings.TrimSpace(e.Category) == "" {
			return nil, fmt.Errorf("example %d: %w", i, core.ErrEmptyCategory)
		}
		docs[i] = e.Description
		labels[i] = e.Category
	}
	if len(distinctLabelsOf(labels)) < 2 {
		return nil, errors.New("need at least two categories")
	}

	vec := fitVectorizer(docs, MaxFeatures)
	if vec.size() == 0 {
		return nil, errors.New("training examples produced an empty vocabulary")
	}
	xs := make([]sparseVector, len(docs))
	for i, d := range docs {
		xs[i] = vec.transform(d)
	}
	return &Classifier{
		vec:   vec,
		model: fitMultinomialNB(xs, labels, vec.size(), Alpha),
	}, nil
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the process-wide classifier trained on the bootstrap
// corpus. It is built on first use.
func Default() *Classifier {
	defaultOnce.Do(func() {
		c, err := New(Corpus())
		if err != nil {
			panic(fmt.Sprintf("classifier: bootstrap corpus: %v", err))
		}
		defaultClassifier = c
	})
	return defaultClassifier
}

// Classes returns the categories the model can predict, in model order.
func (c *Classifier) Classes() []string {
	out := make([]string, len(c.model.classes))
	copy(out, c.model.classes)
	return out
}

// Classify never fails: descriptions the model cannot score are resolved
// by the keyword table and reported as degraded.
func (c *Classifier) Classify(description string) Result {
	res, err := c.predict(description)
	if err != nil {
		kw := KeywordClassify(description)
		kw.Status = core.StatusDegraded
		kw.Reason = err.Error()
		return kw
	}
	return res
}

func (c *Classifier) predict(description string) (Result, error) {
	x := c.vec.transform(description)
	if len(x) == 0 {
		return Result{}, errNoFeatures
	}
	proba := c.model.predictProba(x)

	best := 0
	for i, p := range proba {
		if math.IsNaN(p) {
			return Result{}, errors.New("non-finite class probability")
		}
		if p > proba[best] {
			best = i
		}
	}

	var alts []Suggestion
	for i, p := range proba {
		if p > AlternativeThreshold {
			alts = append(alts, Suggestion{Category: c.model.classes[i], Confidence: p})
		}
	}

	return Result{
		Category:     c.model.classes[best],
		Confidence:   proba[best] * lengthFactor(description),
		Alternatives: alts,
		Method:       MethodNaiveBayes,
		Status:       core.StatusOK,
	}, nil
}

// lengthFactor down-weights short descriptions; five or more words get no
// penalty.
func lengthFactor(description string) float64 {
	words := float64(len(strings.Fields(description)))
	return 0.7 + 0.3*math.Min(words/fullLengthWords, 1)
}

// KeywordClassify matches description against the keyword table. The first
// category with a case-insensitive substring hit wins.
func KeywordClassify(description string) Result {
	d := strings.ToLower(description)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return Result{
					Category:   rule.category,
					Confidence: keywordConfidence,
					Method:     MethodKeyword,
					Status:     core.StatusOK,
				}
			}
		}
	}
	return Result{
		Category:   Other,
		Confidence: otherConfidence,
		Method:     MethodKeyword,
		Status:     core.StatusOK,
	}
}
