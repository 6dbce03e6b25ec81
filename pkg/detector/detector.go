package detector

import (
	"context"
	"time"

	"igaudit/pkg/classifier"
	"igaudit/pkg/errors"
	"igaudit/pkg/instagram"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
	"igaudit/pkg/provider"
)

// Report is the outcome of checking one account
type Report struct {
	Username    string               `json:"username"`
	Label       classifier.Label     `json:"label"`
	Explanation string               `json:"explanation"`
	Rule        classifier.Rule      `json:"rule"`
	Signals     []string             `json:"signals"`
	Record      models.ProfileRecord `json:"record"`
	Source      string               `json:"source"`
	CheckedAt   time.Time            `json:"checked_at"`
}

// Detector runs the classify-by-username flow: sanitize and validate the
// username, look the profile up, validate the record, classify it
type Detector struct {
	provider   provider.Provider
	classifier *classifier.Classifier
	logger     logger.Logger
	now        func() time.Time
}

// New creates a Detector. A nil classifier selects the stock thresholds.
func New(p provider.Provider, c *classifier.Classifier, log logger.Logger) *Detector {
	if c == nil {
		c = classifier.Default()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Detector{
		provider:   p,
		classifier: c,
		logger:     log,
		now:        time.Now,
	}
}

// Check classifies the account behind raw, which may be a bare username, an
// @handle or a profile URL. Invalid input yields a validation error without
// calling the provider; an unknown account yields a not_found error without
// classifying anything.
func (d *Detector) Check(ctx context.Context, raw string) (*Report, error) {
	start := time.Now()

	username, err := NormalizeUsername(raw)
	if err != nil {
		d.logger.WithField("input", raw).Debug("rejected username")
		return nil, err
	}

	log := d.logger.WithFields(map[string]interface{}{
		"username": username,
		"source":   d.provider.Name(),
	})

	record, err := d.provider.Lookup(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Info("account not found")
		} else {
			log.WithError(err).Error("profile lookup failed")
		}
		return nil, err
	}

	if err := record.Validate(); err != nil {
		log.WithError(err).Warn("provider returned an invalid record")
		return nil, err
	}

	result := d.classifier.Classify(*record)

	report := &Report{
		Username:    username,
		Label:       result.Label,
		Explanation: result.Explanation,
		Rule:        result.Rule,
		Signals:     result.Signals,
		Record:      *record,
		Source:      d.provider.Name(),
		CheckedAt:   d.now().UTC(),
	}

	logger.LogClassification(d.logger, username, string(report.Label), string(report.Rule), report.Source, time.Since(start))
	return report, nil
}

// NormalizeUsername sanitizes raw input and checks it is a legal username
func NormalizeUsername(raw string) (string, error) {
	username := instagram.SanitizeUsername(raw)
	if username == "" {
		return "", errors.Validation("username is required")
	}
	if !instagram.IsValidUsername(username) {
		return "", errors.Validation("invalid username %q: use up to %d letters, digits, periods or underscores",
			username, instagram.MaxUsernameLength)
	}
	return username, nil
}
