//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/omnimedia/server/internal/shared/config"
)

// InitializeApp builds the application graph.
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
