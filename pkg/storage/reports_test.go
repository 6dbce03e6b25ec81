package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/classifier"
	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/models"
)

func sampleReport(username string) *detector.Report {
	return &detector.Report{
		Username:    username,
		Label:       classifier.LabelFake,
		Explanation: "low follower count (10) with zero posts",
		Rule:        classifier.RuleLowFollowersNoPosts,
		Signals:     []string{"fewer than 50 followers and no posts"},
		Record:      models.ProfileRecord{Username: username, FollowerCount: 10, FollowingCount: 5},
		Source:      "mock",
		CheckedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReportStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.Empty(t, store.List())

	report := sampleReport("ghost_account")
	require.NoError(t, store.Save(report))

	assert.FileExists(t, filepath.Join(dir, "ghost_account.json"))

	loaded, err := store.Load("ghost_account")
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
	assert.Equal(t, []string{"ghost_account"}, store.List())

	// no temporary files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReportStoreOverwrites(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	first := sampleReport("natgeo")
	require.NoError(t, store.Save(first))

	second := sampleReport("natgeo")
	second.Label = classifier.LabelReal
	require.NoError(t, store.Save(second))

	loaded, err := store.Load("natgeo")
	require.NoError(t, err)
	assert.Equal(t, classifier.LabelReal, loaded.Label)
	assert.Len(t, store.List(), 1)
}

func TestReportStoreScansExisting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleReport("b_account")))
	require.NoError(t, store.Save(sampleReport("a_account")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad name.json"), []byte("{}"), 0644))

	reopened, err := NewReportStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_account", "b_account"}, reopened.List())
}

func TestReportStoreErrors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)

	_, err = store.Load("missing")
	assert.True(t, errors.IsNotFound(err))

	_, err = store.Load("../etc/passwd")
	assert.True(t, errors.IsValidation(err))

	assert.True(t, errors.IsValidation(store.Save(nil)))
	assert.True(t, errors.IsValidation(store.Save(sampleReport("../escape"))))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	_, err = store.Load("broken")
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
}
