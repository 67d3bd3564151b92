package domain

import (
	"context"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	"github.com/bwmarrin/snowflake"
)

type UpsertTuitionFeeRequest struct {
	SchoolID       snowflake.ID
	AcademicYearID snowflake.ID
	Grade          academicsdomain.Grade
	AmountFullDay  int64
	AmountHalfDay  int64
}

type UpsertTransportRouteRequest struct {
	SchoolID     snowflake.ID
	RouteName    string
	AmountOneWay int64
	AmountTwoWay int64
}

type UpsertUniversalFeeRequest struct {
	SchoolID       snowflake.ID
	AcademicYearID snowflake.ID
	FeeType        UniversalFeeType
	FeeName        *string
	Amount         int64
}

type CreateFeeCategoryRequest struct {
	SchoolID    snowflake.ID
	Name        string
	IsUniversal bool
}

type UpsertFeeAmountRequest struct {
	SchoolID       snowflake.ID
	CategoryID     snowflake.ID
	AcademicYearID snowflake.ID
	// GradeRange is the admin-entered label; nil means all grades.
	GradeRange *string
	Amount     int64
}

// Service is the catalog administration write surface.
type Service interface {
	UpsertTuitionFee(ctx context.Context, req UpsertTuitionFeeRequest) (*TuitionFee, error)
	UpsertTransportRoute(ctx context.Context, req UpsertTransportRouteRequest) (*TransportRoute, error)
	UpsertUniversalFee(ctx context.Context, req UpsertUniversalFeeRequest) (*UniversalFee, error)
	CreateFeeCategory(ctx context.Context, req CreateFeeCategoryRequest) (*FeeCategory, error)
	UpsertFeeAmount(ctx context.Context, req UpsertFeeAmountRequest) (*FeeAmount, error)
}

// Reader is the read-only catalog view the fee resolver depends on.
type Reader interface {
	// TuitionFor returns nil when no rate is configured for the grade/year.
	TuitionFor(ctx context.Context, schoolID, yearID snowflake.ID, grade academicsdomain.Grade) (*TuitionFee, error)
	Route(ctx context.Context, schoolID, routeID snowflake.ID) (*TransportRoute, error)
	UniversalFees(ctx context.Context, schoolID, yearID snowflake.ID) ([]UniversalFee, error)
	// ApplicableFeeAmounts returns legacy rows whose range contains the
	// student's grade, plus all-grade rows, joined with category names.
	ApplicableFeeAmounts(ctx context.Context, schoolID, yearID snowflake.ID, grade academicsdomain.Grade) ([]ResolvedFeeAmount, error)
}
