// Package domain contains persistence models for schools, terms and people.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// School is the tenant root. Every other row carries its id.
type School struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	ShortCode string       `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (School) TableName() string { return "schools" }

// AcademicYear is a calendar-year billing scope, e.g. 2025.
type AcademicYear struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SchoolID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_academic_year"`
	Year      int          `gorm:"not null;uniqueIndex:ux_academic_year"`
	StartsOn  time.Time    `gorm:"not null"`
	EndsOn    time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AcademicYear) TableName() string { return "academic_years" }

// AcademicTerm is one of three billing periods within an academic year.
// At most one term per school is active at a time, enforced by ActivateTerm.
type AcademicTerm struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SchoolID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_academic_term"`
	AcademicYearID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_academic_term"`
	TermNumber     int          `gorm:"not null;uniqueIndex:ux_academic_term"`
	StartsOn       time.Time    `gorm:"not null"`
	EndsOn         time.Time    `gorm:"not null"`
	IsActive       bool         `gorm:"not null;default:false;index"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AcademicTerm) TableName() string { return "academic_terms" }

// Guardian is the fee-paying party responsible for one or more students.
type Guardian struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SchoolID  snowflake.ID `gorm:"not null;index"`
	FullName  string       `gorm:"type:text;not null"`
	Phone     string       `gorm:"type:text"`
	Email     string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Guardian) TableName() string { return "guardians" }

// Student belongs to one guardian and sits in one grade.
type Student struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	SchoolID   snowflake.ID `gorm:"not null;index"`
	GuardianID snowflake.ID `gorm:"not null;index"`
	FullName   string       `gorm:"type:text;not null"`
	Grade      Grade        `gorm:"type:text;not null"`
	IsActive   bool         `gorm:"not null;default:true;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Student) TableName() string { return "students" }
