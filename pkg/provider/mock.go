package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"igaudit/pkg/errors"
	"igaudit/pkg/models"
)

// MockProvider serves records from an in-memory table keyed by lower-case
// username. The table is read-only after construction.
type MockProvider struct {
	profiles map[string]models.ProfileRecord
}

// Fixture is the YAML layout read by LoadMockProvider and written by
// the simulate command
type Fixture struct {
	Profiles []models.ProfileRecord `yaml:"profiles"`
}

// seedProfiles are the accounts every mock provider knows about
var seedProfiles = []models.ProfileRecord{
	{Username: "ghost_account", FollowerCount: 10, FollowingCount: 5, PostCount: 0, Bio: "", EngagementRate: 0.0},
	{Username: "travel_blogger", FollowerCount: 10000, FollowingCount: 50, PostCount: 200, Bio: "travel blogger", EngagementRate: 0.05},
	{Username: "follow_farm", FollowerCount: 1000, FollowingCount: 6000, PostCount: 100, Bio: "", EngagementRate: 0.005},
	{Username: "promo_hub", FollowerCount: 800, FollowingCount: 400, PostCount: 2, Bio: "DM for promo | follow4follow", EngagementRate: 0.04},
	{Username: "quiet_lurker", FollowerCount: 3000, FollowingCount: 500, PostCount: 60, Bio: "coffee and code", EngagementRate: 0.012},
	{Username: "natgeo", FollowerCount: 280000000, FollowingCount: 150, PostCount: 30000, Bio: "Experience the world through the eyes of National Geographic photographers.", EngagementRate: 0.021},
}

// NewMockProvider creates a mock provider holding the seed accounts
func NewMockProvider() *MockProvider {
	return NewMockProviderWith(seedProfiles)
}

// NewMockProviderWith creates a mock provider holding exactly records
func NewMockProviderWith(records []models.ProfileRecord) *MockProvider {
	m := &MockProvider{profiles: make(map[string]models.ProfileRecord, len(records))}
	for _, r := range records {
		m.profiles[strings.ToLower(r.Username)] = r
	}
	return m
}

// LoadMockProvider reads a YAML fixture file. Records are validated on load
// so a broken fixture fails early.
func LoadMockProvider(path string) (*MockProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	for i := range fixture.Profiles {
		r := &fixture.Profiles[i]
		if r.Username == "" {
			return nil, fmt.Errorf("fixture %d has no username", i)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", r.Username, err)
		}
	}

	return NewMockProviderWith(fixture.Profiles), nil
}

func (m *MockProvider) Name() string { return "mock" }

// Lookup returns a copy of the stored record
func (m *MockProvider) Lookup(ctx context.Context, username string) (*models.ProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, ok := m.profiles[strings.ToLower(username)]
	if !ok {
		return nil, errors.NotFound(username)
	}
	return &record, nil
}

// Usernames lists the known accounts in sorted order
func (m *MockProvider) Usernames() []string {
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
