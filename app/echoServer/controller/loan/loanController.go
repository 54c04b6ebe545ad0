package loan

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	ls "github.com/deivisson-souza-84lab/libManager/service/loan"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/loans
func (h *Controller) Create(c echo.Context) error {
	var req CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	d, err := h.Svc.Create(c.Request().Context(), ls.CreateInput{
		UserID:             req.UserID,
		LoanDate:           req.LoanDate,
		ExpectedReturnDate: req.ExpectedReturnDate,
		BookIDs:            req.Books,
	})
	if err != nil {
		return h.fail(c, err, "create loan", 0)
	}
	return c.JSON(http.StatusCreated, echo.Map{"loan": d})
}

// PUT /api/loans/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	d, err := h.Svc.Update(c.Request().Context(), id, ls.UpdateInput{
		ExpectedReturnDate: req.ExpectedReturnDate,
		ReturnDate:         req.ReturnDate,
		AddBooks:           req.AddBooks,
		RemoveBooks:        req.RemoveBooks,
	})
	if err != nil {
		return h.fail(c, err, "update loan", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"loan": d})
}

// DELETE /api/loans/:id marks the loan returned.
func (h *Controller) Close(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Close(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "close loan", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan closed"})
}

// POST /api/loans/:id/reopen
func (h *Controller) Reopen(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	d, err := h.Svc.Reopen(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "reopen loan", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"loan": d})
}

// DELETE /api/loans/:id/purge removes a closed loan permanently.
func (h *Controller) Purge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Purge(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "purge loan", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan purged"})
}

// GET /api/loans/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	d, err := h.Svc.Find(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "find loan", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"loan": d})
}

// GET /api/loans
func (h *Controller) List(c echo.Context) error {
	page, perPage := pageParams(c)

	loans, meta, err := h.Svc.List(c.Request().Context(), page, perPage)
	if err != nil {
		h.Log.Error("list loans", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"loans": loans, "meta": meta})
}

// fail maps the loan service error codes onto HTTP statuses.
func (h *Controller) fail(c echo.Context, err error, op string, id int64) error {
	switch ls.Code(err) {
	case ls.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
	case ls.ErrUserHasOpenLoan:
		return c.JSON(http.StatusConflict, echo.Map{"message": "user already has an open loan"})
	case ls.ErrBooksUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{
			"message":           "one or more books are unavailable",
			"unavailable_books": ls.UnavailableBookIDs(err),
		})
	case ls.ErrNotClosed:
		return c.JSON(http.StatusConflict, echo.Map{"message": "loan must be closed first"})
	case ls.ErrLoanClosed:
		return c.JSON(http.StatusConflict, echo.Map{"message": "loan is closed"})
	case ls.ErrNoBooks:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "a loan needs at least one book"})
	case ls.ErrBadDate:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date"})
	default:
		h.Log.Error(op, "err", err, "loan_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	return page, perPage
}
