package finance

import "go.uber.org/fx"

// Module provides the finance repository to Fx.
var Module = fx.Provide(NewRepository)
