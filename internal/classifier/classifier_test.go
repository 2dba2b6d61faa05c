package classifier

import (
	"math"
	"sync"
	"testing"

	"spese-insights/internal/core"
)

func TestCorpusSelfClassification(t *testing.T) {
	c := Default()
	for _, ex := range Corpus() {
		got := c.Classify(ex.Description)
		if got.Category != ex.Category {
			t.Errorf("%q: expected %s, got %s", ex.Description, ex.Category, got.Category)
			continue
		}
		if got.Confidence < 0.5 {
			t.Errorf("%q: confidence %.4f below 0.5", ex.Description, got.Confidence)
		}
		if got.Method != MethodNaiveBayes || got.Status != core.StatusOK {
			t.Errorf("%q: unexpected method/status %s/%s", ex.Description, got.Method, got.Status)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		desc     string
		category string
		min, max float64
	}{
		{"Uber ride to airport", Transport, 0.80, 0.83},
		{"Netflix subscription", Entertainment, 0.55, 0.60},
		{"Electricity bill", Utilities, 0.70, 0.76},
		{"Gym membership", Health, 0.62, 0.68},
		{"Coffee shop", Food, 0.55, 0.60},
		{"Gas station", Transport, 0.54, 0.58},
		{"H&M", Shopping, 0.59, 0.64},
	}
	c := Default()
	for _, tc := range cases {
		got := c.Classify(tc.desc)
		if got.Category != tc.category {
			t.Errorf("%q: expected %s, got %s", tc.desc, tc.category, got.Category)
			continue
		}
		if got.Confidence < tc.min || got.Confidence > tc.max {
			t.Errorf("%q: confidence %.4f outside [%.2f, %.2f]", tc.desc, got.Confidence, tc.min, tc.max)
		}
	}
}

func TestClassifyAlternatives(t *testing.T) {
	got := Default().Classify("Gas")
	if got.Category != Utilities {
		t.Fatalf("expected Utilities, got %s", got.Category)
	}
	// one word: raw * 0.76
	if math.Abs(got.Confidence-0.3084) > 0.005 {
		t.Fatalf("confidence: got %.4f", got.Confidence)
	}
	if len(got.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %+v", got.Alternatives)
	}
	if got.Alternatives[0].Category != Transport || got.Alternatives[1].Category != Utilities {
		t.Fatalf("alternatives out of class order: %+v", got.Alternatives)
	}
	// alternatives keep the raw probability
	if got.Alternatives[1].Confidence <= got.Confidence {
		t.Fatalf("alternative confidence should be unadjusted: %+v", got.Alternatives[1])
	}
	for _, a := range got.Alternatives {
		if a.Confidence <= AlternativeThreshold {
			t.Fatalf("alternative below threshold: %+v", a)
		}
	}
}

func TestClassifyFallback(t *testing.T) {
	cases := []struct {
		desc       string
		category   string
		confidence float64
	}{
		{"", Other, 0.5},
		{"   ", Other, 0.5},
		{"asdfgh", Other, 0.5},
		{"Random expense", Other, 0.5},
		{"mall", Shopping, 0.8},
		{"Movie night", Entertainment, 0.8},
		{"utility", Utilities, 0.8},
	}
	c := Default()
	for _, tc := range cases {
		got := c.Classify(tc.desc)
		if got.Category != tc.category || got.Confidence != tc.confidence {
			t.Errorf("%q: expected %s/%.1f, got %s/%.4f", tc.desc, tc.category, tc.confidence, got.Category, got.Confidence)
		}
		if got.Method != MethodKeyword || !got.Status.Degraded() {
			t.Errorf("%q: expected degraded keyword result, got %s/%s", tc.desc, got.Method, got.Status)
		}
	}
}

func TestKeywordClassifyOrder(t *testing.T) {
	// "gas station" is a Transport keyword, checked before Utilities' "gas".
	if got := KeywordClassify("GAS STATION refill"); got.Category != Transport {
		t.Fatalf("expected Transport, got %s", got.Category)
	}
	if got := KeywordClassify("gas"); got.Category != Utilities {
		t.Fatalf("expected Utilities, got %s", got.Category)
	}
	if got := KeywordClassify("pizza and a movie"); got.Category != Food {
		t.Fatalf("expected Food, got %s", got.Category)
	}
}

func TestLengthFactor(t *testing.T) {
	cases := map[string]float64{
		"":                        0.7,
		"one":                     0.76,
		"one two":                 0.82,
		"one two three four five": 1.0,
		"a b c d e f g":           1.0,
	}
	for in, want := range cases {
		if got := lengthFactor(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("%q: expected %.2f, got %.4f", in, want, got)
		}
	}
}

func TestProbabilitiesSumToOne(t *testing.T) {
	c := Default()
	for _, d := range []string{"pizza", "train pass", "health insurance bill"} {
		x := c.vec.transform(d)
		var sum float64
		for _, p := range c.model.predictProba(x) {
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%q: probabilities sum to %.12f", d, sum)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
	if _, err := New([]Example{{"a", Food}, {"b", Food}}); err == nil {
		t.Fatal("expected error for single category")
	}
	if _, err := New([]Example{{"a", Food}, {"b", ""}}); err == nil {
		t.Fatal("expected error for empty category")
	}
}

func TestCategories(t *testing.T) {
	want := []string{Entertainment, Food, Health, Shopping, Transport, Utilities}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestConcurrentClassify(t *testing.T) {
	c := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ex := range Corpus() {
				if got := c.Classify(ex.Description); got.Category != ex.Category {
					t.Errorf("%q: got %s", ex.Description, got.Category)
				}
			}
		}()
	}
	wg.Wait()
}
