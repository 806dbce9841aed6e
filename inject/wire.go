//go:build wireinject
// +build wireinject

package inject

import (
	"github.com/google/wire"

	"github.com/titpetric/ocpbootstrap/bootstrap"
)

// NewBootstrap builds the process orchestrator
func NewBootstrap() (*bootstrap.Bootstrap, error) {
	wire.Build(Inject)
	return nil, nil
}
