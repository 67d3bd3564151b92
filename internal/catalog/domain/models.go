// Package domain contains the fee catalog: the raw pricing rules the
// resolver reads. All rows are written by catalog administration and are
// read-only from the engine's perspective within a term.
package domain

import (
	"time"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	"github.com/bwmarrin/snowflake"
)

// TuitionFee prices one grade for one academic year.
type TuitionFee struct {
	ID             snowflake.ID          `gorm:"primaryKey"`
	SchoolID       snowflake.ID          `gorm:"not null;index;uniqueIndex:ux_tuition_fee"`
	AcademicYearID snowflake.ID          `gorm:"not null;uniqueIndex:ux_tuition_fee"`
	Grade          academicsdomain.Grade `gorm:"type:text;not null;uniqueIndex:ux_tuition_fee"`
	AmountFullDay  int64                 `gorm:"not null"`
	AmountHalfDay  int64                 `gorm:"not null"`
	CreatedAt      time.Time             `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time             `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TuitionFee) TableName() string { return "tuition_fees" }

// TransportRoute prices a named route, one-way and two-way.
type TransportRoute struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	SchoolID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_transport_route"`
	RouteName    string       `gorm:"type:text;not null;uniqueIndex:ux_transport_route"`
	AmountOneWay int64        `gorm:"not null"`
	AmountTwoWay int64        `gorm:"not null"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TransportRoute) TableName() string { return "transport_routes" }

// UniversalFeeType enumerates the fees applied to all students regardless of grade.
type UniversalFeeType string

const (
	UniversalFeeFood       UniversalFeeType = "food"
	UniversalFeeSports     UniversalFeeType = "sports"
	UniversalFeeLibrary    UniversalFeeType = "library"
	UniversalFeeTechnology UniversalFeeType = "technology"
	UniversalFeeOther      UniversalFeeType = "other"
)

func (t UniversalFeeType) Valid() bool {
	switch t {
	case UniversalFeeFood, UniversalFeeSports, UniversalFeeLibrary, UniversalFeeTechnology, UniversalFeeOther:
		return true
	}
	return false
}

// UniversalFee applies to every student in a year. FeeName is required for type "other".
type UniversalFee struct {
	ID             snowflake.ID     `gorm:"primaryKey"`
	SchoolID       snowflake.ID     `gorm:"not null;index;uniqueIndex:ux_universal_fee"`
	AcademicYearID snowflake.ID     `gorm:"not null;uniqueIndex:ux_universal_fee"`
	FeeType        UniversalFeeType `gorm:"type:text;not null;uniqueIndex:ux_universal_fee"`
	FeeName        *string          `gorm:"type:text"`
	Amount         int64            `gorm:"not null"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UniversalFee) TableName() string { return "universal_fees" }

// CategoryName is the breakdown key for the fee: the capitalized type name,
// or the configured FeeName for type "other".
func (f UniversalFee) CategoryName() string {
	switch f.FeeType {
	case UniversalFeeFood:
		return "Food"
	case UniversalFeeSports:
		return "Sports"
	case UniversalFeeLibrary:
		return "Library"
	case UniversalFeeTechnology:
		return "Technology"
	default:
		if f.FeeName != nil && *f.FeeName != "" {
			return *f.FeeName
		}
		return "Other"
	}
}

// FeeCategory is the legacy catalog's category axis.
type FeeCategory struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	SchoolID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_fee_category"`
	Name        string       `gorm:"type:text;not null;uniqueIndex:ux_fee_category"`
	IsUniversal bool         `gorm:"not null;default:false"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeeCategory) TableName() string { return "fee_categories" }

// FeeAmount binds a legacy category to a year and an optional grade range.
// Ranks are computed once at write time; NULL ranks mean the row applies
// to all grades. GradeRange keeps the label the administrator entered.
type FeeAmount struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SchoolID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_fee_amount"`
	CategoryID     snowflake.ID `gorm:"not null;uniqueIndex:ux_fee_amount"`
	AcademicYearID snowflake.ID `gorm:"not null;uniqueIndex:ux_fee_amount"`
	GradeRange     *string      `gorm:"type:text;uniqueIndex:ux_fee_amount"`
	GradeFromRank  *int         `gorm:""`
	GradeToRank    *int         `gorm:""`
	Amount         int64        `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeeAmount) TableName() string { return "fee_amounts" }

// AppliesToAllGrades reports whether the row has no grade restriction.
func (f FeeAmount) AppliesToAllGrades() bool {
	return f.GradeFromRank == nil && f.GradeToRank == nil
}

// ResolvedFeeAmount is a legacy catalog row joined with its category name,
// as consumed by the fee resolver.
type ResolvedFeeAmount struct {
	FeeAmountID   snowflake.ID
	CategoryName  string
	Amount        int64
	GradeSpecific bool
}
