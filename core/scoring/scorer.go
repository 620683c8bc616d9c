// Package scoring rates prospective-student leads from their categorical attributes.
package scoring

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Quality tiers
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// Factor tags
const (
	FactorHighDemandField           = "high_demand_field"
	FactorImmediateTimeline         = "immediate_timeline"
	FactorAdvancedDegree            = "advanced_degree"
	FactorCareerFocused             = "career_focused"
	FactorHighConversionProbability = "high_conversion_probability"
	FactorStandardProfile           = "standard_profile"
	FactorRuleBasedScoring          = "rule_based_scoring"
)

const (
	defaultInterest = "other"
	defaultDegree   = "bachelors"
	defaultTimeline = "undecided"

	highThreshold   = 80
	mediumThreshold = 60
)

var (
	Qualities = []string{QualityHigh, QualityMedium, QualityLow}

	interestWeights = map[string]float64{
		"ai-machine-learning":  .95,
		"data-science":         .90,
		"computer-science":     .90,
		"cybersecurity":        .85,
		"software-engineering": .85,
		"business-analytics":   .75,
		"healthcare":           .70,
		"engineering":          .70,
		"business":             .60,
		"education":            .50,
		"arts":                 .40,
		"other":                .30,
	}

	degreeWeights = map[string]float64{
		"doctoral":    .95,
		"masters":     .85,
		"bachelors":   .70,
		"associate":   .55,
		"certificate": .40,
	}

	timelineWeights = map[string]float64{
		"immediately": .95,
		"1-3months":   .85,
		"3-6months":   .70,
		"6-12months":  .50,
		"undecided":   .30,
	}
)

type (
	// Input holds the lead attributes the score is derived from.
	// Age and Location are accepted but do not weigh in.
	Input struct {
		Age         *int
		Location    string
		Interest    string
		DegreeLevel string
		Timeline    string
		Comments    string
	}

	Prediction struct {
		Confidence float64  `json:"confidence"`
		Factors    []string `json:"factors"`
	}

	Result struct {
		Score      int        `json:"score"`
		Quality    string     `json:"quality"`
		Prediction Prediction `json:"prediction"`
	}

	// Scorer computes lead scores. It is safe for concurrent use.
	Scorer struct {
		jitter func() float64 // returns a value in [0, 1)
	}

	Option func(*Scorer)
)

// WithJitter replaces the random source used for the two jitter terms.
func WithJitter(fn func() float64) Option {
	return func(s *Scorer) {
		s.jitter = fn
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{jitter: newLockedRand()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// weights are the normalised categorical keys and their looked-up weights.
type weights struct {
	interestKey, degreeKey, timelineKey string
	interest, degree, timeline          float64
}

func lookup(in Input) weights {
	w := weights{
		interestKey: Normalize(in.Interest),
		degreeKey:   Normalize(in.DegreeLevel),
		timelineKey: Normalize(in.Timeline),
	}

	var ok bool
	if w.interest, ok = interestWeights[w.interestKey]; !ok {
		w.interestKey = defaultInterest
		w.interest = interestWeights[defaultInterest]
	}
	if w.degree, ok = degreeWeights[w.degreeKey]; !ok {
		w.degreeKey = defaultDegree
		w.degree = degreeWeights[defaultDegree]
	}
	if w.timeline, ok = timelineWeights[w.timelineKey]; !ok {
		w.timelineKey = defaultTimeline
		w.timeline = timelineWeights[defaultTimeline]
	}
	return w
}

// Score rates the given lead attributes. It never fails: any internal failure
// degrades to the rule-based average of the three categorical weights.
func (s *Scorer) Score(in Input) (res Result) {
	w := lookup(in)

	defer func() {
		if r := recover(); r != nil {
			res = fallback(w)
		}
	}()

	comments := strings.ToLower(in.Comments)
	commentWeight := .5
	if strings.Contains(comments, "career") {
		commentWeight = .8
	} else if strings.Contains(comments, "interested") {
		commentWeight = .7
	}

	jitter1 := .25 + .5*s.jitter()
	raw := .3*w.interest + .25*w.degree + .25*w.timeline + .1*jitter1 + .1*commentWeight
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 || raw > 1 {
		return fallback(w)
	}
	score := clamp(int(math.Round(raw * 100)))

	factors := make([]string, 0, 5)
	if w.interest > .8 {
		factors = append(factors, FactorHighDemandField)
	}
	if w.timelineKey == "immediately" || w.timelineKey == "1-3months" {
		factors = append(factors, FactorImmediateTimeline)
	}
	if w.degreeKey == "masters" || w.degreeKey == "doctoral" {
		factors = append(factors, FactorAdvancedDegree)
	}
	if strings.Contains(comments, "career") {
		factors = append(factors, FactorCareerFocused)
	}
	if score > 85 {
		factors = append(factors, FactorHighConversionProbability)
	}
	if len(factors) == 0 {
		factors = append(factors, FactorStandardProfile)
	}

	jitter2 := s.jitter()
	if math.IsNaN(jitter2) || jitter2 < 0 || jitter2 > 1 {
		return fallback(w)
	}

	return Result{
		Score:   score,
		Quality: Tier(score),
		Prediction: Prediction{
			Confidence: .75 + .2*jitter2,
			Factors:    factors,
		},
	}
}

func fallback(w weights) Result {
	score := clamp(int(math.Round((w.interest + w.timeline + w.degree) * 100 / 3)))
	return Result{
		Score:   score,
		Quality: Tier(score),
		Prediction: Prediction{
			Confidence: float64(score) / 100,
			Factors:    []string{FactorRuleBasedScoring},
		},
	}
}

// Tier maps a score to its quality tier.
func Tier(score int) string {
	switch {
	case score >= highThreshold:
		return QualityHigh
	case score >= mediumThreshold:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Normalize turns a free-text category into a lookup key: "Data Science" -> "data-science".
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func newLockedRand() func() float64 {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return rnd.Float64()
	}
}
