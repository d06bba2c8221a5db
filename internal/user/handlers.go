package user

import (
	"strconv"

	"backend-trailhub/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		users, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		if users == nil {
			users = []User{}
		}
		return c.JSON(users)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}
		u, err := svc.Get(c.Context(), id)
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(u)
	})
}
