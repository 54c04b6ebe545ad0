// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func claimsFromContext(c echo.Context) (jwt.MapClaims, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid jwt claims")
	}
	return claims, nil
}

func UserIDFromContext(c echo.Context) (int64, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return 0, err
	}
	if f, ok := claims["sub"].(float64); ok {
		return int64(f), nil
	}
	return 0, errors.New("sub missing in claims")
}

func RoleFromContext(c echo.Context) (string, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return "", err
	}
	if s, ok := claims["role"].(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role missing in claims")
}

func JTIFromContext(c echo.Context) (string, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return "", err
	}
	if s, ok := claims["jti"].(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("jti missing in claims")
}

func ExpiryFromContext(c echo.Context) (time.Time, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return time.Time{}, err
	}
	if f, ok := claims["exp"].(float64); ok {
		return time.Unix(int64(f), 0), nil
	}
	return time.Time{}, errors.New("exp missing in claims")
}
