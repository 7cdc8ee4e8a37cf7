package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

var (
	contextUserKey   = "user"
	contextClaimsKey = "userToken"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"rol,omitempty"`
}

type tokenAuth struct {
	secretKey []byte
	issuer    string
	lifetime  time.Duration
}

func newTokenAuth(conf *core.Config) tokenAuth {
	return tokenAuth{
		secretKey: []byte(conf.SecretKey),
		issuer:    conf.AppName,
		lifetime:  conf.Server.JWTExpirationDelta,
	}
}

func (ta tokenAuth) claims(usr user.User) *Claims {
	now := time.Now()
	role, _ := usr.Groups.Canonical()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ta.issuer,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ta.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: usr.Email,
		Role:  role,
	}
}

// sign generates a signed JWT token string representing the user Claims.
func (ta tokenAuth) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ta.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (ta tokenAuth) parse(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (interface{}, error) { return ta.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// GenerateToken issues a token for usr signed with the configured secret.
func GenerateToken(conf *core.Config, usr user.User) (string, *Claims, error) {
	ta := newTokenAuth(conf)
	claims := ta.claims(usr)
	token, err := ta.sign(claims)
	return token, claims, err
}

func extractBearer(ctx echo.Context) (string, error) {
	h := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", errUnauthorized
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errUnauthorized
	}
	return parts[1], nil
}

// authMiddleware authenticates the bearer token and loads its (active) user into the context.
func authMiddleware(ta tokenAuth, svc *user.Service, revoker user.TokenRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw, err := extractBearer(ctx)
			if err != nil {
				return err
			}
			claims, err := ta.parse(raw)
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			revoked, err := revoker.IsTokenRevoked(reqCtx, claims.ID)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errInvalidToken
			}

			id, err := strconv.Atoi(claims.Subject)
			if err != nil {
				return errInvalidToken
			}
			usr, err := svc.GetByID(reqCtx, id)
			if err != nil {
				if core.IsNotFound(err) {
					return errInvalidToken
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errUserInactive
			}

			ctx.Set(contextClaimsKey, claims)
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token     string     `json:"token"`
		ID        int        `json:"id"`
		Email     string     `json:"email"`
		FirstName string     `json:"first_name"`
		LastName  string     `json:"last_name"`
		Role      *user.Role `json:"rol"`
	}
)

// Clean accepts the login identifier as either `username` or `email`.
func (lr *LoginRequest) Clean() {
	if lr.Username == "" {
		lr.Username = lr.Email
	}
	lr.Username = core.CleanString(lr.Username, true /* lower */)
}

func newLoginResponse(token string, usr user.User) LoginResponse {
	resp := LoginResponse{
		Token:     token,
		ID:        usr.ID,
		Email:     usr.Email,
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
	}
	if role, ok := usr.Groups.Canonical(); ok {
		resp.Role = &role
	}
	return resp
}

func statusOK(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, MessageResponse{Message: msg})
}
