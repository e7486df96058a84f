package apperr

import "strings"

// messages maps keys to the human-readable text sent in the envelope.
var messages = map[string]string{
	// success
	"SUCCESS":               "Success",
	"LOGIN_SUCCESS":         "Logged in successfully",
	"REGISTER_SUCCESS":      "Registered successfully",
	"TOKEN_REFRESHED":       "Token refreshed successfully",
	"FORGOT_EMAIL_SENT":     "An OTP has been sent to your e-mail address",
	"OTP_RESEND":            "A new OTP has been sent to your e-mail address",
	"OTP_VERIFY":            "OTP verified successfully",
	"RESET_SUCCESS":         "Password reset successfully",
	"LOGOUT_SUCCESS":        "Logged out successfully",
	"APPLICATION_SUBMITTED": "Application saved successfully",
	"APPLICATIONS_FETCHED":  "Applications fetched successfully",
	"APPLICATION_FETCHED":   "Application fetched successfully",
	"USERS_FETCHED":         "Users fetched successfully",
	"USER_FETCHED":          "User fetched successfully",
	"USER_CREATED":          "User saved successfully",
	"USER_DELETED":          "User deleted successfully",

	// failures
	"SOMETHING_WENT_WRONG":   "Something went wrong",
	"BAD_REQUEST":            "The request could not be understood",
	"INVALID_EMAIL":          "No account exists for this e-mail address",
	"INVALID_PASSWORD":       "The password is incorrect",
	"AUTH_TOKEN_REQUIRED":    "Authorization token is required",
	"TOKEN_MALFORMED":        "Authorization token is malformed",
	"TOKEN_EXPIRED":          "Authorization token has expired",
	"TOKEN_INVALID":          "Authorization token is invalid",
	"REFRESH_MALFORMED":      "Refresh token is malformed",
	"ADMIN_ONLY":             "This action requires an administrator",
	"INCORRECT_OTP":          "The OTP is incorrect",
	"OTP_EXPIRED":            "The OTP has expired, request a new one",
	"OTP_NOT_VERIFIED":       "Verify the OTP before resetting the password",
	"OLD_NEW_PASSWORD_SAME":  "The new password must differ from the old one",
	"EMAIL_SEND_FAILED":      "The e-mail could not be sent",
	"ID_NOT_FOUND":           "User not found",
	"USER_ID_NOT_FOUND":      "No active session for this user",
	"TOO_MANY_REQUESTS":      "Too many requests, try again later",
	"USERNAME_REQUIRED":      "Username is required",
	"PASSWORD_REQUIRED":      "Password is required",
	"PASSWORD_MISMATCH":      "Passwords do not match",
	"EMAIL_ALREADY_EXISTS":   "An account with this e-mail already exists",
	"USER_NOT_FOUND":         "User not found",
	"APPLICATION_NOT_FOUND":  "Application not found",
	"INVALID_FILE_TYPE":      "File type is not allowed",
	"FILE_TOO_LARGE":         "File is too large",
	"OTP_REQUIRED":           "OTP is required",
	"USER_ID_REQUIRED":       "User id is required",
	"REFRESH_TOKEN_REQUIRED": "Refresh token is required",
	"ID_REQUIRED":            "Id is required",
	"INVALID_ID":             "Id is invalid",
	"INVALID_OTP":            "The OTP must be a 4-digit number",
	"INVALID_USERNAME":       "Username must be a valid e-mail address",
	"INVALID_PAGE":           "Page is invalid",
	"INVALID_LIMIT":          "Limit is invalid",
}

// Message resolves key to its text. Free text (anything containing a space)
// is passed through; unknown keys fall back to the generic message.
func Message(key string) string {
	if strings.Contains(key, " ") {
		return key
	}
	if m, ok := messages[key]; ok {
		return m
	}
	return messages["SOMETHING_WENT_WRONG"]
}
