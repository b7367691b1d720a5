package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"enrollapi/internal/http/middleware"
	"enrollapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay minimal: they parse input, delegate to services, and translate the
// core's error taxonomy into structured responses.
func RegisterRoutes(app *fiber.App, db *sql.DB, enrollSvc service.EnrollmentService, subSvc service.SubscriptionService, msgSvc service.MessageService) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// List enrollment templates
	app.Get("/enrollments", func(c *fiber.Ctx) error {
		res, err := enrollSvc.List(c.UserContext())
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Get one enrollment template by slug
	app.Get("/enrollments/:name", func(c *fiber.Ctx) error {
		res, err := enrollSvc.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Fire an event on the template's own workflow
	app.Patch("/enrollments/:name/trigger", func(c *fiber.Ctx) error {
		var body struct {
			Event string `json:"event"`
		}
		if err := c.BodyParser(&body); err != nil || body.Event == "" {
			return writeError(c, fiber.StatusBadRequest, "EVENT_REQUIRED", "event is required")
		}
		res, err := enrollSvc.Trigger(c.UserContext(), c.Params("name"), body.Event, middleware.IdentityFromCtx(c))
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// List subscriptions visible to the caller under an enrollment
	app.Get("/enrollments/:name/subscriptions", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		res, err := subSvc.List(c.UserContext(), c.Params("name"), id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Begin a subscription; body holds initial field/scope values by name
	app.Post("/enrollments/:name/subscriptions", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		values := map[string]any{}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&values); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
			}
		}
		res, err := subSvc.Begin(c.UserContext(), c.Params("name"), id, values)
		if err != nil {
			return translateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	// Get one subscription with the caller's ACL
	app.Get("/subscriptions/:id", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		res, err := subSvc.Get(c.UserContext(), subID, id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Update field/scope values through the dynamic accessor resolver
	app.Patch("/subscriptions/:id", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		values := map[string]any{}
		if err := c.BodyParser(&values); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		res, err := subSvc.SetAttributes(c.UserContext(), subID, id, values)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Fire a named workflow event
	app.Patch("/subscriptions/:id/trigger", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		var body struct {
			Event string `json:"event"`
		}
		if err := c.BodyParser(&body); err != nil || body.Event == "" {
			return writeError(c, fiber.StatusBadRequest, "EVENT_REQUIRED", "event is required")
		}
		res, err := subSvc.Trigger(c.UserContext(), subID, body.Event, id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// List a subscription's documents, archived generations included
	app.Get("/subscriptions/:id/documents", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		res, err := subSvc.Documents(c.UserContext(), subID, id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Upload a document (multipart/form-data: file, type)
	app.Post("/subscriptions/:id/documents", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := subSvc.AttachDocument(c.UserContext(), subID, id, c.FormValue("type"), fh.Filename, ct, f, fh.Size)
		if err != nil {
			return translateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	// Withdraw a subscription
	app.Delete("/subscriptions/:id", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		if err := subSvc.Withdraw(c.UserContext(), subID, id); err != nil {
			return translateError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// List a subscription's messages
	app.Get("/subscriptions/:id/messages", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		res, err := msgSvc.List(c.UserContext(), subID, id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	})

	// Author a message on a subscription
	app.Post("/subscriptions/:id/messages", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		subID, err := pathID(c)
		if err != nil {
			return err
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		res, err := msgSvc.Create(c.UserContext(), subID, body.Content, id)
		if err != nil {
			return translateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	// Delete a message; only its sender may
	app.Delete("/messages/:id", func(c *fiber.Ctx) error {
		id := middleware.IdentityFromCtx(c)
		if !id.Authenticated() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		msgID, err := pathID(c)
		if err != nil {
			return err
		}
		if err := msgSvc.Delete(c.UserContext(), msgID, id); err != nil {
			return translateError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// pathID validates the :id path parameter as a UUID. A non-nil error is a
// response already written to the client.
func pathID(c *fiber.Ctx) (string, error) {
	raw := c.Params("id")
	if _, err := uuid.Parse(raw); err != nil {
		return "", writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return raw, nil
}
