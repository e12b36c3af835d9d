package constants

// Session and context keys
const (
	SessionCookieName  = "taskroom_session"
	ContextKeyUserID   = "user_id"
	ContextKeyTenant   = "tenant"
	ContextKeyOrg      = "organization"
	ContextKeyMember   = "organization_member"
	HeaderOrganization = "X-Organization-ID"
	QueryOrganization  = "organization_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Tasks
const (
	MinSeverity         = 1
	MaxSeverity         = 4
	MaxAIGeneratedTasks = 20
)

// Meetings
const (
	DefaultMeetingDescription = "Scheduled Meeting"
	DefaultMeetingTitle       = "Scheduled Call"
	MaxInviteRecipients       = 50
)
