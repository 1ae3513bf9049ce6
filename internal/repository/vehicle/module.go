package vehicle

import "go.uber.org/fx"

// Module provides the vehicle repository to Fx.
var Module = fx.Provide(NewRepository)
