package vehicle

import "go.uber.org/fx"

// Module provides the vehicle service to Fx.
var Module = fx.Provide(NewService)
