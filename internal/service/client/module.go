package client

import "go.uber.org/fx"

// Module provides the client service to Fx.
var Module = fx.Provide(NewService)
