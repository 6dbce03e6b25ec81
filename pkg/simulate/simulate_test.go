package simulate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/classifier"
	"igaudit/pkg/provider"
)

func TestArchetypesClassifyAsExpected(t *testing.T) {
	c := classifier.Default()
	g := NewGenerator(42)

	for _, a := range Archetypes {
		t.Run(string(a), func(t *testing.T) {
			for i := 0; i < 200; i++ {
				rec := g.Record(a, "sample")
				require.NoError(t, rec.Validate())

				res := c.Classify(rec)
				require.Equal(t, a.Expected(), res.Label, "%s drew %+v (%s)", a, rec, res.Explanation)
			}
		})
	}
}

func TestArchetypeRules(t *testing.T) {
	c := classifier.Default()
	g := NewGenerator(7)

	want := map[Archetype]classifier.Rule{
		FakeEmpty:               classifier.RuleLowFollowersNoPosts,
		FakeFollowFarm:          classifier.RuleFollowRatio,
		SuspiciousBio:           classifier.RuleWeakBioFewPosts,
		SuspiciousLowEngagement: classifier.RuleLowEngagement,
		Real:                    classifier.RuleNone,
	}
	for a, rule := range want {
		for i := 0; i < 50; i++ {
			assert.Equal(t, rule, c.Classify(g.Record(a, "x")).Rule, string(a))
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := NewGenerator(1).Generate(25)
	b := NewGenerator(1).Generate(25)
	assert.Equal(t, a, b)

	other := NewGenerator(2).Generate(25)
	assert.NotEqual(t, a, other)

	require.Len(t, a, 25)
	for i, s := range a {
		assert.Equal(t, Archetypes[i%len(Archetypes)], s.Archetype)
		assert.Equal(t, s.Archetype.Expected(), s.Expected)
		assert.LessOrEqual(t, len(s.Record.Username), 30)
	}
}

func TestEvaluate(t *testing.T) {
	samples := NewGenerator(3).Generate(50)
	ev := Evaluate(classifier.Default(), samples)

	assert.Equal(t, 50, ev.Total)
	assert.Equal(t, 50, ev.Matched)
	assert.Empty(t, ev.Mismatches)
	assert.Equal(t, 20, ev.ByLabel[classifier.LabelFake])
	assert.Equal(t, 20, ev.ByLabel[classifier.LabelSuspicious])
	assert.Equal(t, 10, ev.ByLabel[classifier.LabelReal])
}

func TestWriteFixtureRoundTrip(t *testing.T) {
	samples := NewGenerator(9).Generate(10)
	path := filepath.Join(t.TempDir(), "nested", "fixtures.yaml")

	require.NoError(t, WriteFixture(path, Records(samples)))

	mock, err := provider.LoadMockProvider(path)
	require.NoError(t, err)
	assert.Len(t, mock.Usernames(), 10)

	for _, s := range samples {
		rec, err := mock.Lookup(t.Context(), s.Record.Username)
		require.NoError(t, err)
		assert.Equal(t, s.Record, *rec)
	}
}
