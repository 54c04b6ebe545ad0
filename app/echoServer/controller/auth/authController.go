package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deivisson-souza-84lab/libManager/app/echoServer/jwtx"
	"github.com/deivisson-souza-84lab/libManager/model"
	as "github.com/deivisson-souza-84lab/libManager/service/auth"
)

type Controller struct {
	Svc as.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/register
func (h *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Register(c.Request().Context(), req)
	if err != nil {
		switch as.Code(err) {
		case as.ErrEmailTaken:
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		case as.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("register", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u, "token": token})
}

// POST /api/login
func (h *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		switch as.Code(err) {
		case as.ErrInvalidCreds:
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		case as.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("login", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "token": token})
}

// GET /api/profile
func (h *Controller) Profile(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)

	u, err := h.Svc.Profile(c.Request().Context(), uid)
	if err != nil {
		if as.Code(err) == as.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		h.Log.Error("profile", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// GET /api/refresh-token
func (h *Controller) Refresh(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)

	token, err := h.Svc.Refresh(c.Request().Context(), uid, role)
	if err != nil {
		h.Log.Error("refresh token", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// GET /api/logout
func (h *Controller) Logout(c echo.Context) error {
	jti, err := jwtx.JTIFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	exp, err := jwtx.ExpiryFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	if err := h.Svc.Logout(c.Request().Context(), jti, exp); err != nil {
		h.Log.Error("logout", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
