package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/service"
)

type SessionHandler struct {
	tracker *service.SessionTracker
	clock   domain.Clock
}

func NewSessionHandler(tracker *service.SessionTracker, clock domain.Clock) *SessionHandler {
	return &SessionHandler{tracker: tracker, clock: clock}
}

type startSessionRequest struct {
	CatalogItemID string `json:"catalog_item_id"`
}

type completeSessionRequest struct {
	EndTime         *time.Time               `json:"end_time"`
	DurationSeconds int                      `json:"duration_seconds"`
	Steps           int                      `json:"steps"`
	DistanceMeters  float64                  `json:"distance_meters"`
	Calories        int                      `json:"calories"`
	Route           []domain.RoutePoint      `json:"route"`
	HeartRate       []domain.HeartRateSample `json:"heart_rate"`
}

type updateSessionRequest struct {
	Steps          *int                     `json:"steps"`
	DistanceMeters *float64                 `json:"distance_meters"`
	Calories       *int                     `json:"calories"`
	Route          []domain.RoutePoint      `json:"route"`
	HeartRate      []domain.HeartRateSample `json:"heart_rate"`
	Status         domain.SessionStatus     `json:"status"`
}

// StartSession handles POST /v1/me/sessions
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CatalogItemID == "" {
		return badRequest(c, "catalog_item_id is required")
	}

	result, err := h.tracker.Start(c.UserContext(), middleware.GetUserID(c), req.CatalogItemID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, result)
}

// CompleteSession handles POST /v1/me/sessions/:id/complete
func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	var req completeSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	result, err := h.tracker.Complete(c.UserContext(), middleware.GetUserID(c), c.Params("id"), domain.CompletionInput{
		EndTime:         req.EndTime,
		DurationSeconds: req.DurationSeconds,
		Steps:           req.Steps,
		DistanceMeters:  req.DistanceMeters,
		Calories:        req.Calories,
		Route:           req.Route,
		HeartRate:       req.HeartRate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// UpdateSession handles PUT /v1/me/sessions/:id
func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	var req updateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.tracker.Update(c.UserContext(), middleware.GetUserID(c), c.Params("id"), domain.SessionProgress{
		Steps:          req.Steps,
		DistanceMeters: req.DistanceMeters,
		Calories:       req.Calories,
		Route:          req.Route,
		HeartRate:      req.HeartRate,
		Status:         req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// GetSession handles GET /v1/me/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.tracker.Get(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, session)
}

// ListSessions handles GET /v1/me/sessions?status=&from=&to=&page=&limit=
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	from, err := queryDate(c, "from", h.clock)
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryDate(c, "to", h.clock)
	if err != nil {
		return respondError(c, err)
	}
	if !to.IsZero() {
		// inclusive of the whole "to" day
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	filter := domain.SessionFilter{
		Status: domain.SessionStatus(c.Query("status")),
		From:   from,
		To:     to,
		Page:   int64(c.QueryInt("page", 1)),
		Limit:  int64(min(c.QueryInt("limit", 20), 100)),
	}
	sessions, total, err := h.tracker.List(c.UserContext(), middleware.GetUserID(c), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
		"meta": fiber.Map{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}
