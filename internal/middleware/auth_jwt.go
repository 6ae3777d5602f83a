package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxSubjectKey  = "subject"   // string
	CtxUserRoleKey = "user_role" // string
)

// 書き込みAPI用トークンのclaims。subは操作者、roleは ADMIN など
type writerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errNoSubject = errors.New("token has no subject")

// HS256のBearerトークンを検証し、sub/roleをcontextへ積む。exp切れは401
func AuthJWT(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c)
			}

			claims, err := parseWriterClaims(raw, key)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxSubjectKey, claims.Subject)
			c.Set(CtxUserRoleKey, claims.Role)
			return next(c)
		}
	}
}

func parseWriterClaims(raw string, key []byte) (*writerClaims, error) {
	claims := &writerClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errNoSubject
	}
	return claims, nil
}

// "Bearer <token>" からtokenだけ取り出す
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
