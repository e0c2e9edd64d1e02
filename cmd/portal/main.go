package main

import (
	"github.com/brightfold/portal/internal/config"
	"github.com/brightfold/portal/internal/migration"
	"github.com/brightfold/portal/internal/observability"
	"github.com/brightfold/portal/internal/server"
	"github.com/brightfold/portal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
