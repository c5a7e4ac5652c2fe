package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

const (
	tokenCookieName = "access_token"
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"`
	IsTeacher bool   `json:"is_teacher,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

// newJWTConfig reads the token from the access_token cookie.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		TokenLookup:   "cookie:" + tokenCookieName,
	}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:     usr.Email,
		Role:      usr.Role,
		IsStudent: usr.IsStudent(),
		IsTeacher: usr.IsTeacher(),
		IsAdmin:   usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func setTokenCookie(ctx echo.Context, conf *core.Config, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(conf.Server.JWTExpirationDelta),
		MaxAge:   int(conf.Server.JWTExpirationDelta.Seconds()),
		HttpOnly: true,
		Secure:   conf.Server.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   conf.Server.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func authenticate(ctx echo.Context, email, pwd string, svc user.Service) (user.User, error) {
	reqCtx := ctx.Request().Context()
	usr, err := svc.GetByEmail(reqCtx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if usr.IsBlocked() {
		return user.User{}, errAccountBlocked
	}
	usr, err = svc.SetLastLogin(reqCtx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
