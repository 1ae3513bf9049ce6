package legacy

import "go.uber.org/fx"

// Module provides the legacy order repository to Fx.
var Module = fx.Provide(NewRepository)
