package simulate

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"igaudit/pkg/classifier"
	"igaudit/pkg/models"
	"igaudit/pkg/provider"
)

// Archetype is a family of synthetic accounts sharing one expected verdict
type Archetype string

const (
	FakeEmpty               Archetype = "fake_empty"
	FakeFollowFarm          Archetype = "fake_follow_farm"
	SuspiciousBio           Archetype = "suspicious_bio"
	SuspiciousLowEngagement Archetype = "suspicious_low_engagement"
	Real                    Archetype = "real"
)

// Archetypes lists every archetype in generation order
var Archetypes = []Archetype{FakeEmpty, FakeFollowFarm, SuspiciousBio, SuspiciousLowEngagement, Real}

var usernamePrefix = map[Archetype]string{
	FakeEmpty:               "empty",
	FakeFollowFarm:          "farm",
	SuspiciousBio:           "bio",
	SuspiciousLowEngagement: "loweng",
	Real:                    "real",
}

// Expected returns the label the stock classifier gives this archetype
func (a Archetype) Expected() classifier.Label {
	switch a {
	case FakeEmpty, FakeFollowFarm:
		return classifier.LabelFake
	case SuspiciousBio, SuspiciousLowEngagement:
		return classifier.LabelSuspicious
	default:
		return classifier.LabelReal
	}
}

var normalBios = []string{
	"travel blogger",
	"coffee and code",
	"photographer based in Lisbon",
	"runner, reader, dog person",
	"making pottery on weekends",
	"plant based recipes",
	"architecture student",
}

// spamBios all match the stock bio denylist
var spamBios = []string{
	"",
	"",
	"follow4follow",
	"DM for promo",
	"free followers here",
	"click the link below",
}

// Sample is a generated record and the verdict it was built to receive
type Sample struct {
	Archetype Archetype            `json:"archetype"`
	Expected  classifier.Label     `json:"expected"`
	Record    models.ProfileRecord `json:"record"`
}

// Generator draws synthetic records from a seeded source, so equal seeds
// give equal output
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator for seed
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns n samples cycling through the archetypes
func (g *Generator) Generate(n int) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		a := Archetypes[i%len(Archetypes)]
		username := fmt.Sprintf("sim_%s_%04d", usernamePrefix[a], i)
		samples = append(samples, Sample{
			Archetype: a,
			Expected:  a.Expected(),
			Record:    g.Record(a, username),
		})
	}
	return samples
}

// Record draws one record of archetype a
func (g *Generator) Record(a Archetype, username string) models.ProfileRecord {
	r := models.ProfileRecord{Username: username}

	switch a {
	case FakeEmpty:
		r.FollowerCount = g.between(0, 49)
		r.FollowingCount = g.between(0, 800)
		r.PostCount = 0
		r.Bio = g.pick(spamBios)
		r.EngagementRate = 0

	case FakeFollowFarm:
		r.FollowerCount = g.between(50, 2000)
		r.FollowingCount = r.FollowerCount * g.between(6, 15)
		r.PostCount = g.between(1, 300)
		r.Bio = g.pick(spamBios)
		r.EngagementRate = g.basisPoints(0, 99)

	case SuspiciousBio:
		r.FollowerCount = g.between(100, 5000)
		r.FollowingCount = g.between(0, r.FollowerCount)
		r.PostCount = g.between(1, 4)
		r.Bio = g.pick(spamBios)
		r.EngagementRate = g.basisPoints(200, 800)

	case SuspiciousLowEngagement:
		r.FollowerCount = g.between(100, 50000)
		r.FollowingCount = g.between(0, r.FollowerCount)
		r.PostCount = g.between(10, 500)
		r.Bio = g.pick(normalBios)
		r.EngagementRate = g.basisPoints(10, 199)

	default:
		r.FollowerCount = g.between(100, 1000000)
		r.FollowingCount = g.between(0, r.FollowerCount)
		r.PostCount = g.between(5, 1000)
		r.Bio = g.pick(normalBios)
		r.EngagementRate = g.basisPoints(200, 1500)
	}
	return r
}

// between returns an int in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// basisPoints returns a rate in [lo, hi] hundredths of a percent
func (g *Generator) basisPoints(lo, hi int) float64 {
	return float64(g.between(lo, hi)) / 10000
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

// Records strips the archetype information from samples
func Records(samples []Sample) []models.ProfileRecord {
	records := make([]models.ProfileRecord, len(samples))
	for i, s := range samples {
		records[i] = s.Record
	}
	return records
}

// Evaluation compares classifier verdicts with the expected labels
type Evaluation struct {
	Total      int                          `json:"total"`
	Matched    int                          `json:"matched"`
	ByLabel    map[classifier.Label]int     `json:"by_label"`
	Mismatches []Sample                     `json:"mismatches,omitempty"`
	Results    map[string]classifier.Result `json:"-"`
}

// Evaluate classifies every sample with c
func Evaluate(c *classifier.Classifier, samples []Sample) Evaluation {
	ev := Evaluation{
		Total:   len(samples),
		ByLabel: make(map[classifier.Label]int),
		Results: make(map[string]classifier.Result, len(samples)),
	}
	for _, s := range samples {
		res := c.Classify(s.Record)
		ev.Results[s.Record.Username] = res
		ev.ByLabel[res.Label]++
		if res.Label == s.Expected {
			ev.Matched++
		} else {
			ev.Mismatches = append(ev.Mismatches, s)
		}
	}
	return ev
}

// WriteFixture writes records as a YAML fixture readable by the mock provider
func WriteFixture(path string, records []models.ProfileRecord) error {
	data, err := yaml.Marshal(provider.Fixture{Profiles: records})
	if err != nil {
		return fmt.Errorf("failed to encode fixture: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create fixture directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	return nil
}
