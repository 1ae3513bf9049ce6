package patio

import "go.uber.org/fx"

// Module provides the yard board service to Fx.
var Module = fx.Provide(NewService)
