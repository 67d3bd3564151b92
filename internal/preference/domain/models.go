// Package domain contains guardian fee preferences: the per student-per-term
// choices that steer fee resolution, with a full audit history.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TuitionType selects the tuition rate column.
type TuitionType string

const (
	TuitionFullDay TuitionType = "full_day"
	TuitionHalfDay TuitionType = "half_day"
)

func (t TuitionType) Valid() bool {
	return t == TuitionFullDay || t == TuitionHalfDay
}

// TransportType selects the transport rate column.
type TransportType string

const (
	TransportOneWay TransportType = "one_way"
	TransportTwoWay TransportType = "two_way"
)

func (t TransportType) Valid() bool {
	return t == TransportOneWay || t == TransportTwoWay
}

// GuardianFeePreference holds one student's choices for one term.
// Exactly one row exists per (student, term).
type GuardianFeePreference struct {
	ID               snowflake.ID   `gorm:"primaryKey"`
	SchoolID         snowflake.ID   `gorm:"not null;index"`
	StudentID        snowflake.ID   `gorm:"not null;uniqueIndex:ux_fee_preference"`
	AcademicTermID   snowflake.ID   `gorm:"not null;uniqueIndex:ux_fee_preference"`
	TuitionType      TuitionType    `gorm:"type:text;not null;default:'full_day'"`
	TransportRouteID *snowflake.ID  `gorm:"index"`
	TransportType    *TransportType `gorm:"type:text"`
	IncludeFood      bool           `gorm:"not null;default:true"`
	IncludeSports    bool           `gorm:"not null;default:true"`
	UpdatedBy        snowflake.ID   `gorm:"not null"`
	Version          int            `gorm:"not null;default:1"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GuardianFeePreference) TableName() string { return "guardian_fee_preferences" }

// PreferenceHistory is an append-only snapshot of a preference row taken
// before each overwrite, keyed by (preference, version). Unlike a single
// denormalized "previous values" column it retains the full trail.
type PreferenceHistory struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	SchoolID     snowflake.ID   `gorm:"not null;index"`
	PreferenceID snowflake.ID   `gorm:"not null;uniqueIndex:ux_preference_history"`
	Version      int            `gorm:"not null;uniqueIndex:ux_preference_history"`
	Snapshot     datatypes.JSON `gorm:"type:jsonb;not null"`
	ChangedBy    snowflake.ID   `gorm:"not null"`
	ChangedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PreferenceHistory) TableName() string { return "guardian_fee_preference_history" }
