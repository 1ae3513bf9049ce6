package serviceorder

import "go.uber.org/fx"

// Module provides the service order service to Fx.
var Module = fx.Provide(NewService)
