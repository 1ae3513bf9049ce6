package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/job"
	"github.com/Additional-Code/oficina/internal/lock"
	"github.com/Additional-Code/oficina/internal/logger"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/observability"
	"github.com/Additional-Code/oficina/internal/payment"
	repositoryclient "github.com/Additional-Code/oficina/internal/repository/client"
	repositoryfinance "github.com/Additional-Code/oficina/internal/repository/finance"
	repositoryinventory "github.com/Additional-Code/oficina/internal/repository/inventory"
	repositorylegacy "github.com/Additional-Code/oficina/internal/repository/legacy"
	repositorypos "github.com/Additional-Code/oficina/internal/repository/pos"
	repositoryquotation "github.com/Additional-Code/oficina/internal/repository/quotation"
	repositoryserviceorder "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	repositorysupplier "github.com/Additional-Code/oficina/internal/repository/supplier"
	repositoryuser "github.com/Additional-Code/oficina/internal/repository/user"
	repositoryvehicle "github.com/Additional-Code/oficina/internal/repository/vehicle"
	grpcserver "github.com/Additional-Code/oficina/internal/server/grpc"
	httpserver "github.com/Additional-Code/oficina/internal/server/http"
	serviceclient "github.com/Additional-Code/oficina/internal/service/client"
	servicefinance "github.com/Additional-Code/oficina/internal/service/finance"
	serviceinventory "github.com/Additional-Code/oficina/internal/service/inventory"
	servicelegacy "github.com/Additional-Code/oficina/internal/service/legacy"
	servicepatio "github.com/Additional-Code/oficina/internal/service/patio"
	servicepos "github.com/Additional-Code/oficina/internal/service/pos"
	servicequotation "github.com/Additional-Code/oficina/internal/service/quotation"
	serviceserviceorder "github.com/Additional-Code/oficina/internal/service/serviceorder"
	servicesupplier "github.com/Additional-Code/oficina/internal/service/supplier"
	serviceuser "github.com/Additional-Code/oficina/internal/service/user"
	servicevehicle "github.com/Additional-Code/oficina/internal/service/vehicle"
	transporthttp "github.com/Additional-Code/oficina/internal/transport/http"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/internal/worker"
	"github.com/Additional-Code/oficina/internal/worker/audit"
	"github.com/Additional-Code/oficina/internal/worker/projection"
)

// Storage is the minimum needed to talk to Postgres: config, logging and the pools.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Infra adds caching, locks, the bus and telemetry to Storage.
var Infra = fx.Options(
	Storage,
	cache.Module,
	lock.Module,
	messaging.Module,
	event.Module,
	observability.Module,
)

// Repositories provides every bun repository.
var Repositories = fx.Options(
	repositoryclient.Module,
	repositoryvehicle.Module,
	repositoryserviceorder.Module,
	repositorysupplier.Module,
	repositoryinventory.Module,
	repositoryfinance.Module,
	repositoryquotation.Module,
	repositorypos.Module,
	repositoryuser.Module,
	repositorylegacy.Module,
)

// Services provides every domain service.
var Services = fx.Options(
	validation.Module,
	payment.Module,
	serviceclient.Module,
	servicevehicle.Module,
	serviceserviceorder.Module,
	servicepatio.Module,
	servicesupplier.Module,
	serviceinventory.Module,
	servicefinance.Module,
	servicequotation.Module,
	servicepos.Module,
	serviceuser.Module,
	servicelegacy.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	Repositories,
	Services,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes event consumption and the periodic jobs.
var Worker = fx.Options(
	Core,
	worker.Module,
	projection.Module,
	audit.Module,
	job.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
