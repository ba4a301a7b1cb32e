package timetable

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// allowed upload extensions: images plus common document formats.
var allowedExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true,
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true,
}

// ErrBadExtension rejects uploads outside the whitelist.
type ErrBadExtension struct{ Ext string }

func (e ErrBadExtension) Error() string {
	return fmt.Sprintf("invalid file type %q; allowed: images, PDF, Word, Excel", e.Ext)
}

// Store keeps staff timetable files on local disk under a single directory.
// File names are deterministic per staff member, so a re-upload replaces the
// previous file.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes the uploaded timetable for a staff member and returns the
// stored file name. Any previously stored file for the same staff member
// with a different extension is removed.
func (s *Store) Save(staffID int, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !allowedExts[ext] {
		return "", ErrBadExtension{Ext: ext}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("staff_%d_timetable.%s", staffID, ext)

	// Drop stale variants left over from a previous extension.
	matches, _ := filepath.Glob(filepath.Join(s.Dir, fmt.Sprintf("staff_%d_timetable.*", staffID)))
	for _, m := range matches {
		if filepath.Base(m) != filename {
			_ = os.Remove(m)
		}
	}

	f, err := os.Create(filepath.Join(s.Dir, filename))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return filename, nil
}

// Remove deletes a stored timetable file. A missing file is not an error.
func (s *Store) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the on-disk location of a stored file.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.Dir, filepath.Base(filename))
}
