package handler

import (
	"github.com/gofiber/fiber/v3"
)

// Service is implemented by every handler group; Register adds its routes to the router.
type Service interface {
	Register(r fiber.Router)
}
