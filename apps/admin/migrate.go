package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/database"
)

var (
	gooseRunFunc = database.RunMigration // mockable
	openDBFunc   = database.Open         // mockable
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	engine := cli.conf.Storage.Engine
	if engine != core.EngineSQLite && engine != core.EnginePostgres {
		return errors.Errorf("migrations need a sqlite or postgres storage engine (got %q)", engine)
	}
	cli.conf.Database.Engine = engine

	db, err := openDBFunc(ctx, cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return gooseRunFunc(ctx, db, args[0], args[1:]...)
}
