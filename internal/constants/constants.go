package constants

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID            = "user_id"
	ContextKeyProject           = "project"
	ContextKeyProjectRole       = "project_role"
	ContextKeyProjectRoleOrigin = "project_role_origin"
)

// Pagination limits.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 8

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "qfieldcloud_session"
