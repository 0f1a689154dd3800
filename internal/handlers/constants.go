package handlers

const (
	// OAuth cookies live only for the round trip to the provider
	OAuthStateCookieName    = "oauth_state"
	OAuthProviderCookieName = "oauth_provider"

	maxBodyBytes = 1 << 20

	MsgInvalidJSON              = "Invalid JSON body"
	MsgInvalidID                = "Invalid id"
	MsgUnauthorized             = "Unauthorized"
	MsgNotFound                 = "Not found"
	MsgTooManyRequests          = "Too many requests, please try again later"
	MsgInternalServerError      = "Internal server error"
	MsgSampleReadOnly           = "Sample students are read-only"
	MsgRecentActivityIncomplete = "Please complete the recent activity before generating suggestions."
	MsgNoSuggestion             = "No suggestion selected"
	MsgInvalidModelJSON         = "Model did not return valid JSON."
	MsgGenerationFailed         = "Something went wrong during AI generation."
	MsgInvalidCredentials       = "Invalid email or password"
	MsgEmailTaken               = "User already exists"
	MsgInvalidResetToken        = "Password reset token is invalid or has expired."
	MsgResetEmailSent           = "If an account exists for that email, a reset link has been sent."
	MsgPasswordReset            = "Password has been reset."
)
