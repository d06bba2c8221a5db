package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"backend-trailhub/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		activities, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(activities)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		a, err := svc.Get(c.Context(), id)
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		a, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var req UpdateRequest
		if err := decodePatch(c, &req); err != nil {
			return err
		}
		a, err := svc.Update(c.Context(), id, req)
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.Context(), id); err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(fiber.Map{"message": fmt.Sprintf("Activity %d deleted", id)})
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid activity id")
	}
	return id, nil
}

// decodePatch rejects unrecognized keys so a typo'd field name fails
// loudly instead of leaving the stored value untouched.
func decodePatch(c *fiber.Ctx, v any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
