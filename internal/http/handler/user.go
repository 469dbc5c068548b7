package handler

import (
	"github.com/gofiber/fiber/v2"

	"outfitted/internal/http/middleware"
	"outfitted/internal/model"
	"outfitted/internal/service"
)

type userResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{Email: u.Email, FirstName: u.FirstName, Surname: u.Surname}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser godoc
// @Summary Register a user
// @Tags user
// @Accept json
// @Produce json
// @Param body body service.NewUser true "New user"
// @Success 201 {object} userResponse
// @Failure 400 {object} errorPayload
// @Router /api/user/create [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.NewUser
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newUserResponse(u))
	}
}

// CreateToken godoc
// @Summary Obtain an API token
// @Tags user
// @Accept json
// @Produce json
// @Param body body tokenRequest true "Credentials"
// @Success 200 {object} model.Token
// @Failure 400 {object} errorPayload
// @Router /api/user/token [post]
func CreateToken(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in tokenRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if in.Email == "" || in.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CREDENTIALS", "must include email and password")
		}
		tok, err := svc.Authenticate(c.UserContext(), in.Email, in.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tok)
	}
}

// Me godoc
// @Summary Current user
// @Tags user
// @Produce json
// @Security TokenAuth
// @Success 200 {object} userResponse
// @Failure 401 {object} errorPayload
// @Router /api/user/me [get]
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(newUserResponse(middleware.UserFromCtx(c)))
	}
}

// UpdateMe godoc
// @Summary Update the current user
// @Tags user
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param body body service.ProfileUpdate true "Fields to change"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/user/me [patch]
func UpdateMe(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProfileUpdate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := svc.UpdateProfile(c.UserContext(), middleware.UserFromCtx(c).ID, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newUserResponse(u))
	}
}
