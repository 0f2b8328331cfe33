package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /v1/me/profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.profileService.Get(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, profile)
}

// DeleteProfile handles DELETE /v1/me/profile
func (h *ProfileHandler) DeleteProfile(c *fiber.Ctx) error {
	result, err := h.profileService.Delete(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// UpsertProfile handles PUT /v1/me/profile
func (h *ProfileHandler) UpsertProfile(c *fiber.Ctx) error {
	var req domain.UserProfile
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.profileService.Upsert(c.UserContext(), middleware.GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return respondData(c, status, result)
}
