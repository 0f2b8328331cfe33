package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/service"
)

// PlanHandler serves the plan, schedule and daily workout endpoints.
type PlanHandler struct {
	planService *service.PlanService
	scheduler   *service.Scheduler
	resolver    *service.DailyResolver
	clock       domain.Clock
}

func NewPlanHandler(
	planService *service.PlanService,
	scheduler *service.Scheduler,
	resolver *service.DailyResolver,
	clock domain.Clock,
) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		scheduler:   scheduler,
		resolver:    resolver,
		clock:       clock,
	}
}

type generatePlanRequest struct {
	Weeks           int  `json:"weeks"`
	ForceRegenerate bool `json:"force_regenerate"`
}

// GeneratePlan handles POST /v1/me/plan
func (h *PlanHandler) GeneratePlan(c *fiber.Ctx) error {
	var req generatePlanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	result, err := h.planService.GeneratePlan(c.UserContext(), service.GeneratePlanRequest{
		UserID: middleware.GetUserID(c),
		Weeks:  req.Weeks,
		Force:  req.ForceRegenerate,
	})
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return respondData(c, status, result)
}

// GetPlan handles GET /v1/me/plan
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	overview, err := h.planService.CurrentPlan(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, overview)
}

// GetPlanWorkouts handles GET /v1/me/plan/workouts
func (h *PlanHandler) GetPlanWorkouts(c *fiber.Ctx) error {
	items, err := h.planService.AvailableWorkouts(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, items)
}

// GetSchedule handles GET /v1/me/schedule?from=&to=&status=
func (h *PlanHandler) GetSchedule(c *fiber.Ctx) error {
	from, err := queryDate(c, "from", h.clock)
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryDate(c, "to", h.clock)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := h.scheduler.List(c.UserContext(), middleware.GetUserID(c), domain.ScheduleFilter{
		From:   from,
		To:     to,
		Status: domain.ScheduleStatus(c.Query("status")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, entries)
}

// GetToday handles GET /v1/me/today
func (h *PlanHandler) GetToday(c *fiber.Ctx) error {
	res, err := h.resolver.ResolveToday(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, res)
}

// GetDaily handles GET /v1/me/daily?from=&to=
func (h *PlanHandler) GetDaily(c *fiber.Ctx) error {
	from, err := queryDate(c, "from", h.clock)
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryDate(c, "to", h.clock)
	if err != nil {
		return respondError(c, err)
	}

	records, err := h.resolver.ListDaily(c.UserContext(), middleware.GetUserID(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, records)
}
