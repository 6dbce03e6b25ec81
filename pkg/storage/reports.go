package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/instagram"
)

const reportExt = ".json"

// ReportStore keeps one JSON report per account in a directory
type ReportStore struct {
	dir    string
	stored map[string]bool
	mu     sync.RWMutex
}

// NewReportStore creates dir if needed and indexes the reports already in it
func NewReportStore(dir string) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	s := &ReportStore{
		dir:    dir,
		stored: make(map[string]bool),
	}

	if err := s.scanExistingReports(); err != nil {
		return nil, fmt.Errorf("failed to scan existing reports: %w", err)
	}

	return s, nil
}

func (s *ReportStore) scanExistingReports() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != reportExt {
			continue
		}
		username := strings.TrimSuffix(entry.Name(), reportExt)
		if instagram.IsValidUsername(username) {
			s.stored[username] = true
		}
	}
	return nil
}

// Save writes report to <username>.json, replacing any earlier report. The
// write goes through a temporary file so readers never see a partial report.
func (s *ReportStore) Save(report *detector.Report) error {
	if report == nil {
		return errors.Validation("report is missing")
	}
	path, err := s.path(report.Username)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+report.Username+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(append(data, '\n'))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.mu.Lock()
	s.stored[report.Username] = true
	s.mu.Unlock()
	return nil
}

// Load reads the stored report for username. A missing report is a
// not_found error.
func (s *ReportStore) Load(username string) (*detector.Report, error) {
	path, err := s.path(username)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrorTypeNotFound, 0, "no stored report for %s", username)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report detector.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.New(errors.ErrorTypeParsing, 0, "corrupt report %s: %v", filepath.Base(path), err)
	}
	return &report, nil
}

// List returns the usernames with a stored report, sorted
func (s *ReportStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.stored))
	for name := range s.stored {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dir returns the report directory
func (s *ReportStore) Dir() string {
	return s.dir
}

func (s *ReportStore) path(username string) (string, error) {
	if !instagram.IsValidUsername(username) {
		return "", errors.Validation("invalid username %q", username)
	}
	return filepath.Join(s.dir, username+reportExt), nil
}
