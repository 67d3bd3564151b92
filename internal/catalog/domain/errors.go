package domain

import (
	"errors"
	"fmt"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrRouteNotFound    = errors.New("transport_route_not_found")
	ErrCategoryNotFound = errors.New("fee_category_not_found")
	ErrInvalidCatalog   = errors.New("invalid_catalog_entry")
)

// MissingCatalogEntryError reports a tuition lookup that found no rate.
// The resolver must surface it rather than defaulting to a zero fee.
type MissingCatalogEntryError struct {
	Grade academicsdomain.Grade
	Year  int
}

func (e *MissingCatalogEntryError) Error() string {
	return fmt.Sprintf("no tuition rate configured for grade %s in year %d", e.Grade, e.Year)
}

// InvalidGradeRangeError reports an unparseable or inconsistent grade range
// on a legacy fee amount row.
type InvalidGradeRangeError struct {
	FeeAmountID snowflake.ID
	Range       string
	Reason      string
}

func (e *InvalidGradeRangeError) Error() string {
	if e.FeeAmountID != 0 {
		return fmt.Sprintf("invalid grade range %q on fee amount %s: %s", e.Range, e.FeeAmountID, e.Reason)
	}
	return fmt.Sprintf("invalid grade range %q: %s", e.Range, e.Reason)
}
