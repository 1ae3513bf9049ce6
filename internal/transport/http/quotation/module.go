package quotation

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// Module wires the quotation HTTP handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
