package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/keelhq/warden/pkg/trace"
)

// handleQueryTraces handles GET /v1/traces.
func (s *Server) handleQueryTraces(c *fiber.Ctx) error {
	query := trace.Query{
		FilePath:   c.Query("file_path"),
		IntentID:   c.Query("intent_id"),
		SessionURL: c.Query("session"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid limit parameter",
			})
		}
		query.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid offset parameter",
			})
		}
		query.Offset = offset
	}

	records, err := s.traces.Query(c.Context(), query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to query audit log",
		})
	}
	if records == nil {
		records = []*trace.Record{}
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}

// handleGetTrace handles GET /v1/traces/:id. The backends index by the
// governance dimensions rather than record id, so this scans the query
// result for the id.
func (s *Server) handleGetTrace(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "id parameter is required",
		})
	}

	records, err := s.traces.Query(c.Context(), trace.Query{})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to query audit log",
		})
	}

	for _, rec := range records {
		if rec.ID == id {
			return c.JSON(rec)
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: "trace record not found",
	})
}
