package pos

import "go.uber.org/fx"

// Module provides the point-of-sale service to Fx.
var Module = fx.Provide(NewService)
