package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"outfitted/internal/http/middleware"
	"outfitted/internal/model"
	"outfitted/internal/service"
	serviceMocks "outfitted/internal/service/mocks"
)

// asUser stands in for TokenAuth in handler tests.
func asUser(id int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserLocalKey, &model.User{ID: id, Email: "owner@example.com", FirstName: "Ada", Surname: "Lovelace"})
		return c.Next()
	}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func jsonRequest(method, target string, body any) *http.Request {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&service.ValidationError{Field: "name", Message: "this field may not be blank"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{service.ErrEmailRequired, http.StatusBadRequest, "EMAIL_REQUIRED"},
		{service.ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN"},
		{service.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{service.ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
		{service.ErrImageTooLarge, http.StatusBadRequest, "IMAGE_TOO_LARGE"},
		{service.ErrReaderNil, http.StatusBadRequest, "FILE_REQUIRED"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			app := fiber.New()
			app.Use(middleware.RequestID())
			app.Get("/", func(c *fiber.Ctx) error { return writeServiceError(c, tt.err) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "rid-1")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, "rid-1", body.RequestID)
			assert.NotContains(t, body.Error.Message, "pq:")
		})
	}

	t.Run("internal cause kept for the request log", func(t *testing.T) {
		cause := errors.New("pq: connection refused")
		var recorded any
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			err := writeServiceError(c, cause)
			recorded = c.Locals(middleware.ErrorLocalKey)
			return err
		})

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, cause, recorded)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			return writeServiceError(c, &service.ValidationError{Field: "tags", Message: `invalid pk "9" - object does not exist`})
		})

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

		body := decodeError(t, resp)
		assert.Equal(t, "tags", body.Error.Field)
		assert.Equal(t, `invalid pk "9" - object does not exist`, body.Error.Message)
	})
}

func TestRouting(t *testing.T) {
	app := newTestApp()

	users := new(serviceMocks.MockUserService)
	posts := new(serviceMocks.MockPostService)
	tags := serviceMocks.NewMockAttributeService(model.KindTag)
	items := serviceMocks.NewMockAttributeService(model.KindItem)
	RegisterRoutes(app, nil, Services{Users: users, Tags: tags, Items: items, Posts: posts})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("anonymous requests are rejected", func(t *testing.T) {
		for _, target := range []string{"/api/post/tags", "/api/post/items", "/api/post/posts", "/api/post/posts/1", "/api/user/me"} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			resp, _ := app.Test(req)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
			assert.Equal(t, "Token", resp.Header.Get(fiber.HeaderWWWAuthenticate), target)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code, target)
		}
	})

	t.Run("authenticated request reaches the owner's tags", func(t *testing.T) {
		users.On("UserForToken", mock.Anything, "k1").Return(&model.User{ID: 3, IsActive: true}, nil).Once()
		tags.On("List", mock.Anything, int64(3), false).Return([]model.Attribute{{ID: 1, Name: "Casual"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/post/tags", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Token k1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		users.AssertExpectations(t)
		tags.AssertExpectations(t)
		items.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid token", func(t *testing.T) {
		users.On("UserForToken", mock.Anything, "bad").Return(nil, service.ErrInvalidToken).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/post/posts", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Token bad")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid token", decodeError(t, resp).Error.Message)
	})
}
