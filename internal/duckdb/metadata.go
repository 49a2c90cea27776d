package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordSource stores the fingerprint of an input file.
func (s *Store) RecordSource(fp FileFingerprint) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO sources VALUES (?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("record source %s: %w", fp.Path, err)
	}
	return nil
}

// SourceChanged reports whether fp differs from the recorded fingerprint
// of the same path. A path never recorded counts as changed.
func (s *Store) SourceChanged(fp FileFingerprint) (bool, error) {
	var size, modTime int64
	err := s.db.QueryRow("SELECT size, mod_time_ns FROM sources WHERE path=?", fp.Path).
		Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source %s: %w", fp.Path, err)
	}
	return size != fp.Size || modTime != fp.ModTime.UnixNano(), nil
}
