// Package migration applies versioned SQL schema changes.
//
// Migration files live in an fs.FS (usually an embedded directory) and follow
// the naming convention {version}_{description}.sql, e.g. 001_initial_schema.sql.
// Each file runs inside its own transaction and is recorded in the
// schema_migrations table so it is never applied twice.
//
//	manager := migration.NewManager(migration.NewScanner(files, "sqlite"), migration.NewSQLExecutor(db, migration.BindQuestion), logger)
//	applied, err := manager.Run(ctx)
//	if err != nil {
//		return err
//	}
//	logger.Info("schema ready", "applied", applied)
package migration
