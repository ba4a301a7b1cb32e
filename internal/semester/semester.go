package semester

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTerm means a term for that (branch, semester) already exists.
	ErrDuplicateTerm = errors.New("semester already exists for this cohort")
	// ErrTermNotFound means no term matches the given id.
	ErrTermNotFound = errors.New("semester not found")
)

// Term is one offering of a cohort-semester. Terms are deactivated when
// ended, never deleted: history is retained.
type Term struct {
	ID          int    `json:"id"`
	Branch      string `json:"branch"`
	SemesterNum int    `json:"semester_num"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsActive    bool   `json:"is_active"`
}

// Result reports a cohort transition.
type Result struct {
	Promoted  int `json:"promoted"`
	Graduated int `json:"graduated"`
}

// Store is the persistence slice the lifecycle needs.
type Store interface {
	Term(ctx context.Context, id int) (*Term, error)
	// CloseTerm atomically deactivates the term and transitions its whole
	// cohort: increment every matching student's semester, or set it to nil
	// when graduate is true. Returns the number of students moved.
	CloseTerm(ctx context.Context, t Term, graduate bool) (int, error)
}

// Lifecycle advances cohorts at the end of a term. Students below the
// terminal semester are promoted; students at it are archived as graduates.
type Lifecycle struct {
	store    Store
	terminal int
}

// NewLifecycle creates the manager. terminal is the institution's last
// semester number before graduation (program-length dependent, e.g. 6 or 8).
func NewLifecycle(store Store, terminal int) *Lifecycle {
	if terminal < 1 {
		terminal = 6
	}
	return &Lifecycle{store: store, terminal: terminal}
}

// EndSemester closes a term and moves its cohort forward. Calling it again
// for the same term is harmless: the cohort has already moved on, so zero
// students transition.
func (l *Lifecycle) EndSemester(ctx context.Context, termID int) (Result, error) {
	term, err := l.store.Term(ctx, termID)
	if err != nil {
		return Result{}, err
	}
	if term == nil {
		return Result{}, ErrTermNotFound
	}
	if term.SemesterNum < 1 {
		return Result{}, fmt.Errorf("term %d has invalid semester number %d", termID, term.SemesterNum)
	}

	graduate := term.SemesterNum >= l.terminal
	moved, err := l.store.CloseTerm(ctx, *term, graduate)
	if err != nil {
		return Result{}, err
	}
	if graduate {
		return Result{Graduated: moved}, nil
	}
	return Result{Promoted: moved}, nil
}
