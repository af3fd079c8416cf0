// Package pg bootstraps the PostgreSQL side of notifykit on pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config and retries with a linear backoff
// until the database answers a ping or the attempts run out. Waiting between
// attempts stops as soon as the context is cancelled.
//
// Migrate applies the schema with goose. The tenants and integrations tables
// ship embedded in the binary (see Migrations); setting PG_MIGRATIONS_PATH
// replaces them with a directory on disk.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//
// The error helpers ([IsNotFoundError], [IsDuplicateKeyError],
// [IsForeignKeyViolationError], [IsTxClosedError]) classify pgx and
// *pgconn.PgError values for the stores built on top of this package.
package pg
