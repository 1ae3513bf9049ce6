package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/oficina/internal/app"
)

// Container entrypoint: serves HTTP and gRPC until SIGINT/SIGTERM.
func main() {
	fx.New(app.HTTP).Run()
}
