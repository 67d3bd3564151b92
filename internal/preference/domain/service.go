package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidPreference  = errors.New("invalid_preference")
	ErrPreferenceNotFound = errors.New("preference_not_found")
)

type UpsertPreferenceRequest struct {
	SchoolID         snowflake.ID
	StudentID        snowflake.ID
	AcademicTermID   snowflake.ID
	TuitionType      TuitionType
	TransportRouteID *snowflake.ID
	TransportType    *TransportType
	IncludeFood      bool
	IncludeSports    bool
	UpdatedBy        snowflake.ID
}

type Service interface {
	// Upsert writes the (student, term) preference row, snapshotting the
	// previous values into the history table before each overwrite.
	Upsert(ctx context.Context, req UpsertPreferenceRequest) (*GuardianFeePreference, error)
	// Get returns nil without error when no preference row exists;
	// resolution then falls back to defaults.
	Get(ctx context.Context, schoolID, studentID, termID snowflake.ID) (*GuardianFeePreference, error)
	History(ctx context.Context, schoolID, preferenceID snowflake.ID) ([]PreferenceHistory, error)
}
