package quotation

import "go.uber.org/fx"

// Module provides the quotation service to Fx.
var Module = fx.Provide(NewService)
