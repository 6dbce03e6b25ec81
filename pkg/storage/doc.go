// Package storage persists classification reports on disk.
//
// Each report is written as <username>.json using a temporary file and an
// atomic rename, so an interrupted run never leaves a truncated report.
// Usernames are validated before they become file names.
//
//	store, err := storage.NewReportStore("reports")
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(report); err != nil {
//	    return err
//	}
package storage
