package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/renovo-dev/renovo/internal/platform/auth"
	"github.com/renovo-dev/renovo/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts owner endpoints on the authenticated group and the
// workflow/query endpoints on the admin group.
func (h *Handler) RegisterRoutes(authed, admin *echo.Group) {
	authed.POST("/consultations", h.Create)
	authed.GET("/consultations/mine", h.ListOwn)
	authed.GET("/consultations/:id", h.Get)
	authed.PUT("/consultations/:id", h.Update)
	authed.DELETE("/consultations/:id", h.Delete)

	admin.GET("/consultations", h.ListByFilter)
	admin.GET("/consultations/pending", h.ListPending)
	admin.GET("/consultations/urgent", h.ListUrgent)
	admin.GET("/consultations/stats", h.Stats)
	admin.PATCH("/consultations/:id/status", h.UpdateStatus)
	admin.GET("/consultations/:id/history", h.GetHistory)
}

func actorFrom(c echo.Context) Actor {
	ctx := c.Request().Context()
	id, _ := uuid.Parse(auth.UserIDFromContext(ctx))
	return Actor{ID: id, Role: auth.RoleFromContext(ctx)}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), actorFrom(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListOwn(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListOwn(c.Request().Context(), actorFrom(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	out, err := h.svc.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.Update(c.Request().Context(), actorFrom(c), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByFilter(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Status:  c.QueryParam("status"),
		Service: c.QueryParam("service"),
		Search:  c.QueryParam("search"),
	}
	items, total, err := h.svc.ListByFilter(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPending(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPending(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListUrgent(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListUrgent(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

type updateStatusRequest struct {
	Status Status  `json:"status"`
	Reason *string `json:"reason"`
}

type updateStatusResponse struct {
	ID        uuid.UUID `json:"id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	old, now, err := h.svc.UpdateStatus(c.Request().Context(), actorFrom(c), id, req.Status, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updateStatusResponse{ID: id, OldStatus: old, NewStatus: now})
}

func (h *Handler) GetHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	history, err := h.svc.GetHistory(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if history == nil {
		history = []*StatusChange{}
	}
	return c.JSON(http.StatusOK, history)
}
