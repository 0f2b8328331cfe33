package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/service"
)

type ChallengeHandler struct {
	challengeService *service.ChallengeService
}

func NewChallengeHandler(challengeService *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// ListChallenges handles GET /v1/challenges
func (h *ChallengeHandler) ListChallenges(c *fiber.Ctx) error {
	defs, err := h.challengeService.ListChallenges(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, defs)
}

// ListMyChallenges handles GET /v1/me/challenges?status=
func (h *ChallengeHandler) ListMyChallenges(c *fiber.Ctx) error {
	enrollments, err := h.challengeService.ListUserChallenges(c.UserContext(), middleware.GetUserID(c),
		domain.EnrollmentStatus(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, enrollments)
}

// Enroll handles POST /v1/me/challenges/:key/enroll
func (h *ChallengeHandler) Enroll(c *fiber.Ctx) error {
	enrollment, err := h.challengeService.Enroll(c.UserContext(), middleware.GetUserID(c), c.Params("key"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, enrollment)
}

type progressRequest struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

// RecordProgress handles POST /v1/me/challenges/:key/progress
func (h *ChallengeHandler) RecordProgress(c *fiber.Ctx) error {
	var req progressRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	enrollment, err := h.challengeService.RecordProgress(c.UserContext(), middleware.GetUserID(c), c.Params("key"), req.Day, req.Value)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, enrollment)
}

type statusRequest struct {
	Status domain.EnrollmentStatus `json:"status"`
}

// SetStatus handles PUT /v1/me/challenges/:key/status
func (h *ChallengeHandler) SetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	enrollment, err := h.challengeService.SetStatus(c.UserContext(), middleware.GetUserID(c), c.Params("key"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, enrollment)
}

// AutoAssign handles POST /v1/me/challenges/auto-assign
func (h *ChallengeHandler) AutoAssign(c *fiber.Ctx) error {
	enrollments, err := h.challengeService.AutoAssignWalkingChallenges(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, enrollments)
}
