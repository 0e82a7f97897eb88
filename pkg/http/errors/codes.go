package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeInvalidCredentials     = "invalid_credentials"
	ErrCodeRateLimited            = "rate_limited"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeEmailDomain      = "email_domain_not_allowed"
	ErrCodeInvalidLevel     = "invalid_level"
	ErrCodeInvalidCategory  = "invalid_category"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Business logic errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeRefreshFailed      = "refresh_failed"
	ErrCodeOTPFailed          = "otp_failed"
	ErrCodeOTPLocked          = "otp_locked"
	ErrCodeStudentNotFound    = "student_not_found"

	// Game errors
	ErrCodeInvalidTransition     = "invalid_transition"
	ErrCodeUnknownState          = "unknown_state"
	ErrCodeLevelAlreadyAttempted = "level_already_attempted"
	ErrCodeGameBusy              = "game_busy"
	ErrCodeGameFailed            = "game_failed"
	ErrCodeSaveFailed            = "save_failed"

	// Session/report errors
	ErrCodeSessionNotFound    = "session_not_found"
	ErrCodeInvalidSessionID   = "invalid_session_id"
	ErrCodeSessionFetchFailed = "session_fetch_failed"
	ErrCodeAnalysisFailed     = "analysis_failed"
	ErrCodeAnalysisTimeout    = "analysis_timeout"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// OAuth errors
	ErrCodeOAuthNotConfigured  = "oauth_not_configured"
	ErrCodeOAuthStartFailed    = "oauth_start_failed"
	ErrCodeOAuthCallbackFailed = "oauth_callback_failed"
	ErrCodeOAuthMissingCode    = "missing_code"
	ErrCodeOAuthInvalidState   = "invalid_state"
	ErrCodeUserCreationFailed  = "user_creation_failed"

	// Stats errors
	ErrCodeStatsFetchFailed = "stats_fetch_failed"
)
