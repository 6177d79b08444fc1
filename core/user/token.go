package user

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// Token uses. Access tokens authorize resource calls; refresh tokens are
// single-purpose and only accepted by the token refresh exchange.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

var (
	NowFunc = time.Now // mockable

	// ErrTokenInvalid covers malformed, tampered, expired and superseded
	// tokens alike; callers cannot tell them apart.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// Claims are the authorization claims transmitted via a JWT. Besides the
// identity reference they carry only the role and the token use; scopes are
// always re-derived from a fresh profile lookup per request.
type Claims struct {
	jwt.StandardClaims
	Username     string `json:"username,omitempty"`
	Role         string `json:"role,omitempty"`
	Use          string `json:"use,omitempty"`
	TokenVersion int    `json:"ver,omitempty"`
}

// TokenPair is an access + refresh token set.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func newClaims(usr User, use string, ttl time.Duration) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:     usr.Username,
		Role:         usr.Role,
		Use:          use,
		TokenVersion: usr.TokenVersion,
	}
}

func signToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(core.Conf.SecretKey)
	return ss, errors.Wrap(err, "signing token")
}

// IssueTokens issues an access + refresh pair for the user. Both carry the
// same identity and role claims.
func IssueTokens(usr User) (TokenPair, error) {
	access, err := signToken(newClaims(usr, TokenUseAccess, core.Conf.Server.JWTExpirationDelta))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(newClaims(usr, TokenUseRefresh, core.Conf.Server.JWTRefreshExpirationDelta))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyToken parses and verifies a signed token of the given use. Signature,
// expiry and use are all checked; any failure is ErrTokenInvalid.
func VerifyToken(raw, use string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return core.Conf.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Use != use || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
