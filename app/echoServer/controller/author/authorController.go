package author

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	as "github.com/deivisson-souza-84lab/libManager/service/author"
)

type Controller struct {
	Svc as.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/authors
func (h *Controller) Create(c echo.Context) error {
	var req CreateAuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	a, err := h.Svc.Create(c.Request().Context(), req.Name, req.DateOfBirth)
	if err != nil {
		h.Log.Error("create author", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"author": a})
}

// PUT /api/authors/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateAuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	a, err := h.Svc.Update(c.Request().Context(), id, req.Name, req.DateOfBirth)
	if err != nil {
		if as.Code(err) == as.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("update author", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"author": a})
}

// DELETE /api/authors/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if as.Code(err) == as.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("delete author", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "author deleted"})
}

// GET /api/authors/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	a, err := h.Svc.Find(c.Request().Context(), id)
	if err != nil {
		if as.Code(err) == as.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("find author", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"author": a})
}

// GET /api/authors
func (h *Controller) List(c echo.Context) error {
	page, perPage := pageParams(c)

	authors, meta, err := h.Svc.List(c.Request().Context(), page, perPage)
	if err != nil {
		h.Log.Error("list authors", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"authors": authors, "meta": meta})
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	return page, perPage
}
