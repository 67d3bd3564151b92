package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrSchoolNotFound   = errors.New("school_not_found")
	ErrTermNotFound     = errors.New("term_not_found")
	ErrStudentNotFound  = errors.New("student_not_found")
	ErrGuardianNotFound = errors.New("guardian_not_found")
	ErrInvalidSchool    = errors.New("invalid_school")
)

// TermContext bundles a term with its academic year, which billing needs together.
type TermContext struct {
	Term AcademicTerm
	Year AcademicYear
}

type Service interface {
	// ActivateTerm marks the term active and deactivates every other term
	// of the same school in one transaction.
	ActivateTerm(ctx context.Context, schoolID, termID snowflake.ID) error
	ActiveTerm(ctx context.Context, schoolID snowflake.ID) (*AcademicTerm, error)
	TermContext(ctx context.Context, schoolID, termID snowflake.ID) (*TermContext, error)

	GetStudent(ctx context.Context, schoolID, studentID snowflake.ID) (*Student, error)
	GetGuardian(ctx context.Context, schoolID, guardianID snowflake.ID) (*Guardian, error)
	// ActiveStudents returns the guardian's active children.
	ActiveStudents(ctx context.Context, schoolID, guardianID snowflake.ID) ([]Student, error)
}
