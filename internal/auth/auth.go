package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator checks tokens minted by the account service. The booking
// engine never issues tokens itself; it only consumes them.
type Authenticator interface {
	ValidateAccessToken(token string) (*jwt.Token, error)
}
