package middleware

import (
	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。roleがADMINのときだけ通す
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return unauthorized(c)
			}

			//ADMINだけ許可
			if role != "ADMIN" {
				return forbidden(c, "admin only")
			}

			return next(c)
		}
	}
}

// 書き込み系APIのガード。secretが空なら何も付けない
func WriteGuards(secret string) []echo.MiddlewareFunc {
	if secret == "" {
		return nil
	}
	return []echo.MiddlewareFunc{AuthJWT(secret), AdminRoleGuard()}
}
