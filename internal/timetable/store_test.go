package timetable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	store := NewStore(t.TempDir())

	name, err := store.Save(7, "Spring Timetable.PDF", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "staff_7_timetable.pdf" {
		t.Errorf("stored name = %q", name)
	}

	data, err := os.ReadFile(store.Path(name))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content = %q", data)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(store.Path(name)); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}

	// Removing again is fine.
	if err := store.Remove(name); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestSaveReplacesOldExtension(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Save(7, "old.png", strings.NewReader("img")); err != nil {
		t.Fatalf("Save png: %v", err)
	}
	name, err := store.Save(7, "new.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("Save pdf: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(store.Dir, "staff_7_timetable.*"))
	if len(matches) != 1 || filepath.Base(matches[0]) != name {
		t.Errorf("leftover files: %v", matches)
	}
}

func TestSaveRejectsBadExtension(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, bad := range []string{"timetable.exe", "timetable", "timetable.sh"} {
		_, err := store.Save(7, bad, strings.NewReader("x"))
		var badExt ErrBadExtension
		if !errors.As(err, &badExt) {
			t.Errorf("Save(%q): err = %v, want ErrBadExtension", bad, err)
		}
	}
}

func TestPathIgnoresDirectoryTraversal(t *testing.T) {
	store := NewStore(t.TempDir())
	got := store.Path("../../etc/passwd")
	if filepath.Dir(got) != store.Dir {
		t.Errorf("Path escaped the store dir: %q", got)
	}
}
