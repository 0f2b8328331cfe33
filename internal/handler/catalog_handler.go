package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListWorkouts handles GET /v1/catalog?category=&intensity=&type=
// category accepts a comma separated list.
func (h *CatalogHandler) ListWorkouts(c *fiber.Ctx) error {
	filter := domain.CatalogFilter{
		Type:      c.Query("type"),
		Intensity: domain.Intensity(c.Query("intensity")),
		Limit:     int64(c.QueryInt("limit", 0)),
	}
	if raw := c.Query("category"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Categories = append(filter.Categories, domain.Category(part))
			}
		}
	}

	items, err := h.catalogService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, items)
}

// GetWorkout handles GET /v1/catalog/:id
func (h *CatalogHandler) GetWorkout(c *fiber.Ctx) error {
	item, err := h.catalogService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, item)
}

// CreateWorkout handles POST /v1/catalog (admin only)
func (h *CatalogHandler) CreateWorkout(c *fiber.Ctx) error {
	var req domain.WorkoutCatalogItem
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.ID = ""
	if err := h.catalogService.Create(c.UserContext(), &req); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, req)
}

// UpdateWorkout handles PUT /v1/catalog/:id (admin only)
func (h *CatalogHandler) UpdateWorkout(c *fiber.Ctx) error {
	var req domain.WorkoutCatalogItem
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	item, err := h.catalogService.Update(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, item)
}
