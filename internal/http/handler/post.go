package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"outfitted/internal/http/middleware"
	"outfitted/internal/model"
	"outfitted/internal/service"
)

func postID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListPosts godoc
// @Summary List the caller's posts
// @Tags post
// @Produce json
// @Security TokenAuth
// @Success 200 {array} model.Post
// @Failure 401 {object} errorPayload
// @Router /api/post/posts [get]
func ListPosts(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), middleware.UserFromCtx(c).ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if res == nil {
			res = []model.Post{}
		}
		return c.JSON(res)
	}
}

// CreatePost godoc
// @Summary Create a post
// @Tags post
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param body body service.PostInput true "Post"
// @Success 201 {object} model.Post
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/post/posts [post]
func CreatePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.PostInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		p, err := svc.Create(c.UserContext(), middleware.UserFromCtx(c).ID, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GetPost godoc
// @Summary Post detail
// @Tags post
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 200 {object} model.PostDetail
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id} [get]
func GetPost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		d, err := svc.Get(c.UserContext(), middleware.UserFromCtx(c).ID, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(d)
	}
}

// UpdatePost godoc
// @Summary Replace a post
// @Tags post
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Param body body service.PostInput true "Post"
// @Success 200 {object} model.Post
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id} [put]
func UpdatePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.PostInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		p, err := svc.Update(c.UserContext(), middleware.UserFromCtx(c).ID, id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// PatchPost godoc
// @Summary Partially update a post
// @Tags post
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Param body body service.PostPatch true "Fields to change"
// @Success 200 {object} model.Post
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id} [patch]
func PatchPost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.PostPatch
		if err := c.BodyParser(&in); err != nil {
			var vErr *service.ValidationError
			if errors.As(err, &vErr) {
				return writeServiceError(c, vErr)
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		p, err := svc.Patch(c.UserContext(), middleware.UserFromCtx(c).ID, id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// DeletePost godoc
// @Summary Delete a post and its image
// @Tags post
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id} [delete]
func DeletePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.UserFromCtx(c).ID, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadPostImage godoc
// @Summary Upload a post image
// @Description multipart/form-data, field name: image. JPEG, PNG and GIF are accepted.
// @Tags post
// @Accept mpfd
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Param image formData file true "Image"
// @Success 200 {object} model.PostImage
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id}/upload-image [post]
func UploadPostImage(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "image is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.UploadImage(c.UserContext(), middleware.UserFromCtx(c).ID, id, f, fh.Filename)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetPostImage godoc
// @Summary Download a post image
// @Tags post
// @Produce image/jpeg,image/png,image/gif
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/post/posts/{id}/image [get]
func GetPostImage(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := postID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.Image(c.UserContext(), middleware.UserFromCtx(c).ID, id)
		if err != nil {
			return writeServiceError(c, err)
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, size)
	}
}
