package book

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	bs "github.com/deivisson-souza-84lab/libManager/service/book"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/books
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	d, err := h.Svc.Create(c.Request().Context(), bs.CreateInput{
		Title:           req.Title,
		PublicationYear: req.PublicationYear,
		AuthorIDs:       req.Authors,
	})
	if err != nil {
		if bs.Code(err) == bs.ErrAuthorNotFound {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "unknown author"})
		}
		h.Log.Error("create book", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"book": d})
}

// PUT /api/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	d, err := h.Svc.Update(c.Request().Context(), id, bs.UpdateInput{
		Title:           req.Title,
		PublicationYear: req.PublicationYear,
		AddAuthors:      req.AddAuthors,
		RemoveAuthors:   req.RemoveAuthors,
	})
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrAuthorNotFound:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "unknown author"})
		default:
			h.Log.Error("update book", "err", err, "id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"book": d})
}

// DELETE /api/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if bs.Code(err) == bs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("delete book", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}

// GET /api/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	d, err := h.Svc.Find(c.Request().Context(), id)
	if err != nil {
		if bs.Code(err) == bs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("find book", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"book": d})
}

// GET /api/books
func (h *Controller) List(c echo.Context) error {
	page, perPage := pageParams(c)

	books, meta, err := h.Svc.List(c.Request().Context(), page, perPage)
	if err != nil {
		h.Log.Error("list books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"books": books, "meta": meta})
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	return page, perPage
}
