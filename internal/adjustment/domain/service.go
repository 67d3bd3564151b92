package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// InvalidAdjustmentError reports an adjustment whose variant fields are
// missing or out of range.
type InvalidAdjustmentError struct {
	CategoryName string
	Reason       string
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("invalid adjustment for category %q: %s", e.CategoryName, e.Reason)
}

type PutAdjustmentRequest struct {
	SchoolID           snowflake.ID
	GuardianID         snowflake.ID
	AcademicTermID     snowflake.ID
	CategoryName       string
	AdjustmentType     AdjustmentType
	CustomAmount       *int64
	DiscountPercentage *float64
	Reason             string
	CreatedBy          snowflake.ID
}

type Service interface {
	Put(ctx context.Context, req PutAdjustmentRequest) (*GuardianFeeAdjustment, error)
	List(ctx context.Context, schoolID, guardianID, termID snowflake.ID) ([]GuardianFeeAdjustment, error)
	// Effective returns the decoded adjustment per category, the latest
	// write winning when a category was adjusted more than once.
	Effective(ctx context.Context, schoolID, guardianID, termID snowflake.ID) (map[string]Adjustment, error)
}
