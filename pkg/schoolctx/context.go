// Package schoolctx propagates the tenant school through request contexts.
package schoolctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type keyType string

const schoolIDKey keyType = "school_id"

// WithSchoolID returns a context carrying the school identifier.
func WithSchoolID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, schoolIDKey, id)
}

// SchoolID extracts the school identifier set by the tenant middleware.
func SchoolID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(schoolIDKey).(snowflake.ID)
	return id, ok && id != 0
}
