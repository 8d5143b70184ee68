package constants

// Gin context keys set by middleware.
const (
	ContextKeyAuth   = "auth_context"
	ContextKeyAccess = "project_access"
)

// Pagination bounds for list endpoints.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
