package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service resolves the fees of one student for one term. Resolution is a
// pure function of the catalog, preference and adjustment state: calling it
// twice without intervening writes yields identical output.
type Service interface {
	Resolve(ctx context.Context, schoolID, studentID, termID snowflake.ID) (Breakdown, error)
}
