// Package pg bootstraps the PostgreSQL layer used by the notification
// engine: a pgx/v5 connection pool with startup retries, goose schema
// migrations, a healthcheck closure, and error classification helpers.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations.FS, ".", cfg, slog.Default()); err != nil {
//		panic(err)
//	}
//
// The notification, preference, and job stores in this module all accept a
// *pgxpool.Pool produced here.
package pg
