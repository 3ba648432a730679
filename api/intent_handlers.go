package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/keelhq/warden/pkg/intent"
)

// handleListIntents handles GET /v1/intents.
func (s *Server) handleListIntents(c *fiber.Ctx) error {
	reg := s.intents.Load()
	return c.JSON(reg)
}

// handleGetIntent handles GET /v1/intents/:id.
func (s *Server) handleGetIntent(c *fiber.Ctx) error {
	id := c.Params("id")

	in, err := s.intents.FindByID(id)
	if err != nil {
		var notFound intent.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: notFound.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load intent registry",
		})
	}

	return c.JSON(in)
}
