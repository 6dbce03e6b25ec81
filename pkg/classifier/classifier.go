package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"igaudit/pkg/config"
	"igaudit/pkg/models"
)

// Label is the verdict assigned to an account
type Label string

const (
	LabelFake       Label = "fake"
	LabelSuspicious Label = "suspicious"
	LabelReal       Label = "real"
)

// Rule identifies which ordered rule produced a verdict
type Rule string

const (
	RuleLowFollowersNoPosts Rule = "low_followers_no_posts"
	RuleFollowRatio         Rule = "follow_ratio"
	RuleWeakBioFewPosts     Rule = "weak_bio_few_posts"
	RuleLowEngagement       Rule = "low_engagement"
	RuleNone                Rule = "none"
)

// NoFlagsSignal is the only signal reported when no rule condition holds
const NoFlagsSignal = "no strong heuristic flags detected"

// EngagementUnavailableSignal is reported for records whose engagement rate
// could not be measured and was taken as 0
const EngagementUnavailableSignal = "engagement unavailable, counted as 0%"

// Thresholds holds the numeric limits of the ordered rules
type Thresholds struct {
	// Accounts below MinFollowers with zero posts are fake
	MinFollowers int
	// Follow ratios above MaxFollowRatio combined with engagement below
	// FakeEngagement are fake
	MaxFollowRatio float64
	FakeEngagement float64
	// Engagement below SuspiciousEngagement is suspicious
	SuspiciousEngagement float64
	// A weak bio is suspicious when the account has fewer posts than this
	MinPostsWithWeakBio int
}

// DefaultThresholds returns the stock rule limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFollowers:         50,
		MaxFollowRatio:       5,
		FakeEngagement:       0.01,
		SuspiciousEngagement: 0.02,
		MinPostsWithWeakBio:  5,
	}
}

// Result is the outcome of classifying one record
type Result struct {
	Label       Label    `json:"label"`
	Explanation string   `json:"explanation"`
	Rule        Rule     `json:"rule"`
	FollowRatio float64  `json:"follow_ratio"`
	BioFlagged  bool     `json:"bio_flagged"`
	Signals     []string `json:"signals"`
}

// Classifier applies the ordered heuristic rules to profile records.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
	denylist   []*regexp.Regexp
	watch      []*watchRule
}

// New builds a classifier from configuration. Bio patterns and watch rules
// are compiled once here; a bad pattern or expression is an error.
func New(cfg *config.ClassifierConfig) (*Classifier, error) {
	denylist, err := compileDenylist(cfg.BioDenylist)
	if err != nil {
		return nil, err
	}

	watch, err := compileWatchRules(cfg.WatchRules)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		thresholds: Thresholds{
			MinFollowers:         cfg.MinFollowers,
			MaxFollowRatio:       cfg.MaxFollowRatio,
			FakeEngagement:       cfg.FakeEngagement,
			SuspiciousEngagement: cfg.SuspiciousEngagement,
			MinPostsWithWeakBio:  cfg.MinPostsWithWeakBio,
		},
		denylist: denylist,
		watch:    watch,
	}, nil
}

// Default returns a classifier with the stock thresholds and bio denylist
func Default() *Classifier {
	c, err := New(&config.DefaultConfig().Classifier)
	if err != nil {
		panic(fmt.Sprintf("default classifier: %v", err))
	}
	return c
}

var defaultClassifier = Default()

// Classify labels a record using the stock thresholds
func Classify(record models.ProfileRecord) Result {
	return defaultClassifier.Classify(record)
}

// Thresholds returns the limits this classifier applies
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

func compileDenylist(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid bio pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// BioFlagged reports whether a bio is empty or matches a spam pattern
func (c *Classifier) BioFlagged(bio string) bool {
	return bioEmpty(bio) || c.bioSpam(bio)
}

func bioEmpty(bio string) bool {
	return strings.TrimSpace(bio) == ""
}

func (c *Classifier) bioSpam(bio string) bool {
	for _, re := range c.denylist {
		if re.MatchString(bio) {
			return true
		}
	}
	return false
}

// Classify evaluates the ordered rules against record; the first match wins.
// Signals additionally lists every rule condition that holds plus any watch
// rules that fire. Watch rules never change the label.
func (c *Classifier) Classify(record models.ProfileRecord) Result {
	t := c.thresholds
	ratio := record.FollowRatio()
	empty := bioEmpty(record.Bio)
	flagged := empty || c.bioSpam(record.Bio)

	lowFollowersNoPosts := record.FollowerCount < t.MinFollowers && record.PostCount == 0
	followFarm := ratio > t.MaxFollowRatio && record.EngagementRate < t.FakeEngagement
	weakBio := flagged && record.PostCount < t.MinPostsWithWeakBio
	lowEngagement := record.EngagementRate < t.SuspiciousEngagement

	result := Result{
		FollowRatio: ratio,
		BioFlagged:  flagged,
	}

	switch {
	case lowFollowersNoPosts:
		result.Label = LabelFake
		result.Rule = RuleLowFollowersNoPosts
		result.Explanation = fmt.Sprintf("low follower count (%d) with zero posts", record.FollowerCount)
	case followFarm:
		result.Label = LabelFake
		result.Rule = RuleFollowRatio
		result.Explanation = fmt.Sprintf("follows %.2f accounts per follower with engagement %s below %s",
			ratio, percent(record.EngagementRate), percent(t.FakeEngagement))
	case weakBio:
		result.Label = LabelSuspicious
		result.Rule = RuleWeakBioFewPosts
		result.Explanation = fmt.Sprintf("%s with only %d posts", bioKind(empty), record.PostCount)
	case lowEngagement:
		result.Label = LabelSuspicious
		result.Rule = RuleLowEngagement
		result.Explanation = fmt.Sprintf("engagement rate %s below %s",
			percent(record.EngagementRate), percent(t.SuspiciousEngagement))
	default:
		result.Label = LabelReal
		result.Rule = RuleNone
		result.Explanation = fmt.Sprintf("passed all heuristic checks (%d followers, %d posts, engagement %s)",
			record.FollowerCount, record.PostCount, percent(record.EngagementRate))
	}

	if lowFollowersNoPosts {
		result.Signals = append(result.Signals,
			fmt.Sprintf("fewer than %d followers and no posts", t.MinFollowers))
	}
	if followFarm {
		result.Signals = append(result.Signals,
			fmt.Sprintf("follow ratio %.2f above %.2f with engagement below %s",
				ratio, t.MaxFollowRatio, percent(t.FakeEngagement)))
	}
	if weakBio {
		result.Signals = append(result.Signals,
			fmt.Sprintf("%s with fewer than %d posts", bioKind(empty), t.MinPostsWithWeakBio))
	}
	if lowEngagement {
		result.Signals = append(result.Signals,
			fmt.Sprintf("engagement below %s", percent(t.SuspiciousEngagement)))
	}

	if record.EngagementUnavailable {
		if result.Rule == RuleFollowRatio || result.Rule == RuleLowEngagement {
			result.Explanation += " (" + EngagementUnavailableSignal + ")"
		}
		result.Signals = append(result.Signals, EngagementUnavailableSignal)
	}

	result.Signals = append(result.Signals, c.evalWatchRules(record, ratio)...)

	if len(result.Signals) == 0 {
		result.Signals = []string{NoFlagsSignal}
	}

	return result
}

func bioKind(empty bool) string {
	if empty {
		return "empty bio"
	}
	return "spam-pattern bio"
}

// percent formats a [0,1] ratio as a percentage, keeping small rates readable
func percent(v float64) string {
	s := fmt.Sprintf("%.2f", v*100)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
