package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"outfitted/internal/http/middleware"
	"outfitted/internal/model"
	"outfitted/internal/service"
)

type attributeRequest struct {
	Name string `json:"name"`
}

// ListAttributes godoc
// @Summary List the caller's tags or items
// @Description Ordered by name descending. assigned_only=1 keeps only rows attached to a post.
// @Tags post
// @Produce json
// @Security TokenAuth
// @Param assigned_only query bool false "Only rows used by a post"
// @Success 200 {array} model.Attribute
// @Failure 401 {object} errorPayload
// @Router /api/post/tags [get]
// @Router /api/post/items [get]
func ListAttributes(svc service.AttributeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		assignedOnly := false
		if v := c.Query("assigned_only"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "assigned_only must be a boolean")
			}
			assignedOnly = b
		}

		res, err := svc.List(c.UserContext(), middleware.UserFromCtx(c).ID, assignedOnly)
		if err != nil {
			return writeServiceError(c, err)
		}
		if res == nil {
			res = []model.Attribute{}
		}
		return c.JSON(res)
	}
}

// CreateAttribute godoc
// @Summary Create a tag or an item owned by the caller
// @Tags post
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param body body attributeRequest true "Name"
// @Success 201 {object} model.Attribute
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/post/tags [post]
// @Router /api/post/items [post]
func CreateAttribute(svc service.AttributeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in attributeRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		a, err := svc.Create(c.UserContext(), middleware.UserFromCtx(c).ID, in.Name)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}
