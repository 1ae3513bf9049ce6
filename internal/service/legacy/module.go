package legacy

import "go.uber.org/fx"

// Module provides the legacy order service to Fx.
var Module = fx.Provide(NewService)
