package http

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/oficina/internal/transport/http/client"
	"github.com/Additional-Code/oficina/internal/transport/http/finance"
	"github.com/Additional-Code/oficina/internal/transport/http/legacy"
	"github.com/Additional-Code/oficina/internal/transport/http/patio"
	"github.com/Additional-Code/oficina/internal/transport/http/pos"
	"github.com/Additional-Code/oficina/internal/transport/http/quotation"
	"github.com/Additional-Code/oficina/internal/transport/http/serviceorder"
	"github.com/Additional-Code/oficina/internal/transport/http/stock"
	"github.com/Additional-Code/oficina/internal/transport/http/supplier"
	"github.com/Additional-Code/oficina/internal/transport/http/user"
	"github.com/Additional-Code/oficina/internal/transport/http/vehicle"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	serviceorder.Module,
	patio.Module,
	client.Module,
	vehicle.Module,
	supplier.Module,
	stock.Module,
	finance.Module,
	quotation.Module,
	pos.Module,
	user.Module,
	legacy.Module,
)
