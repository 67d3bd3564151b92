// Package domain contains guardian fee adjustments: per guardian-per-term
// per-category overrides that take precedence over catalog defaults.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AdjustmentType discriminates the stored row. Decode turns a row into the
// variant type carrying only the fields that variant needs.
type AdjustmentType string

const (
	AdjustmentExclude      AdjustmentType = "exclude"
	AdjustmentCustomAmount AdjustmentType = "custom_amount"
	AdjustmentDiscount     AdjustmentType = "discount"
)

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentExclude, AdjustmentCustomAmount, AdjustmentDiscount:
		return true
	}
	return false
}

// GuardianFeeAdjustment is the persistence row. Several rows may exist per
// (guardian, term, category); the latest write wins at resolution time.
type GuardianFeeAdjustment struct {
	ID                 snowflake.ID   `gorm:"primaryKey"`
	SchoolID           snowflake.ID   `gorm:"not null;index"`
	GuardianID         snowflake.ID   `gorm:"not null;index:ix_adjustment_scope"`
	AcademicTermID     snowflake.ID   `gorm:"not null;index:ix_adjustment_scope"`
	CategoryName       string         `gorm:"type:text;not null"`
	AdjustmentType     AdjustmentType `gorm:"type:text;not null"`
	CustomAmount       *int64         `gorm:""`
	DiscountPercentage *float64       `gorm:""`
	Reason             string         `gorm:"type:text"`
	CreatedBy          snowflake.ID   `gorm:"not null"`
	CreatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GuardianFeeAdjustment) TableName() string { return "guardian_fee_adjustments" }

// Adjustment is the decoded variant applied during fee resolution.
type Adjustment interface {
	Category() string
	isAdjustment()
}

// Exclude removes the category from the breakdown entirely.
type Exclude struct {
	CategoryName string
}

func (e Exclude) Category() string { return e.CategoryName }
func (Exclude) isAdjustment()      {}

// CustomAmount replaces the resolved amount for the category.
type CustomAmount struct {
	CategoryName string
	Amount       int64
}

func (c CustomAmount) Category() string { return c.CategoryName }
func (CustomAmount) isAdjustment()      {}

// Discount reduces the resolved amount for the category by a percentage.
type Discount struct {
	CategoryName string
	Percentage   float64
}

func (d Discount) Category() string { return d.CategoryName }
func (Discount) isAdjustment()      {}

// Decode validates the row and returns its variant.
func (a GuardianFeeAdjustment) Decode() (Adjustment, error) {
	switch a.AdjustmentType {
	case AdjustmentExclude:
		return Exclude{CategoryName: a.CategoryName}, nil
	case AdjustmentCustomAmount:
		if a.CustomAmount == nil || *a.CustomAmount < 0 {
			return nil, &InvalidAdjustmentError{CategoryName: a.CategoryName, Reason: "custom_amount adjustment is missing its amount"}
		}
		return CustomAmount{CategoryName: a.CategoryName, Amount: *a.CustomAmount}, nil
	case AdjustmentDiscount:
		if a.DiscountPercentage == nil || *a.DiscountPercentage <= 0 || *a.DiscountPercentage > 100 {
			return nil, &InvalidAdjustmentError{CategoryName: a.CategoryName, Reason: "discount adjustment needs a percentage in (0, 100]"}
		}
		return Discount{CategoryName: a.CategoryName, Percentage: *a.DiscountPercentage}, nil
	default:
		return nil, &InvalidAdjustmentError{CategoryName: a.CategoryName, Reason: "unknown adjustment type " + string(a.AdjustmentType)}
	}
}
