package pos

import "go.uber.org/fx"

// Module provides the sale repository to Fx.
var Module = fx.Provide(NewRepository)
