package auth

import "errors"

var (
	ErrDuplicateEmail        = errors.New("an account with this email already exists")
	ErrDuplicateUsername     = errors.New("this username is already taken")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrAccountLocked         = errors.New("account is temporarily locked due to too many failed login attempts")
	ErrIncorrectPassword     = errors.New("your current password is incorrect")
	ErrInvalidOrExpiredToken = errors.New("token is invalid or has expired")
	ErrEmailNotVerified      = errors.New("please verify your email address to use this feature")
	ErrAlreadyVerified       = errors.New("email address is already verified")
	ErrForbidden             = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated       = errors.New("you are not logged in")
	ErrSessionExpired        = errors.New("your session has expired, please log in again")
	ErrPasswordChanged       = errors.New("password was changed recently, please log in again")
)

// IsUnauthenticated matches every reason a session can be refused.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrPasswordChanged)
}
