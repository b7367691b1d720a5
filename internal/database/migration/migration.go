package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_enrollments",
		SQL: `CREATE TABLE IF NOT EXISTS enrollments (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL UNIQUE,
  human_name  TEXT        NOT NULL DEFAULT '',
  description TEXT        NOT NULL DEFAULT '',
  state       TEXT        NOT NULL DEFAULT 'initial',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_fields",
		SQL: `CREATE TABLE IF NOT EXISTS fields (
  id            UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  enrollment_id UUID    NOT NULL REFERENCES enrollments (id) ON DELETE CASCADE,
  parent_id     UUID    REFERENCES fields (id) ON DELETE CASCADE,
  kind          TEXT    NOT NULL,
  name          TEXT,
  human_name    TEXT,
  label         TEXT,
  required      BOOLEAN NOT NULL DEFAULT FALSE,
  position      INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_scopes",
		SQL: `CREATE TABLE IF NOT EXISTS scopes (
  id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  enrollment_id UUID NOT NULL REFERENCES enrollments (id) ON DELETE CASCADE,
  name          TEXT NOT NULL,
  human_name    TEXT NOT NULL DEFAULT '',
  UNIQUE (enrollment_id, name)
);`,
	},
	{
		Name: "create_table_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS document_types (
  id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  enrollment_id UUID NOT NULL REFERENCES enrollments (id) ON DELETE CASCADE,
  name          TEXT NOT NULL,
  human_name    TEXT NOT NULL DEFAULT '',
  UNIQUE (enrollment_id, name)
);`,
	},
	{
		Name: "create_table_subscriptions",
		SQL: `CREATE TABLE IF NOT EXISTS subscriptions (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  enrollment_id UUID        NOT NULL REFERENCES enrollments (id),
  state         TEXT        NOT NULL DEFAULT 'initial',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_answers",
		SQL: `CREATE TABLE IF NOT EXISTS answers (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  subscription_id UUID        NOT NULL REFERENCES subscriptions (id) ON DELETE CASCADE,
  field_id        UUID        NOT NULL REFERENCES fields (id),
  content         JSONB,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (subscription_id, field_id)
);`,
	},
	{
		Name: "create_table_scope_subscriptions",
		SQL: `CREATE TABLE IF NOT EXISTS scope_subscriptions (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  subscription_id UUID        NOT NULL REFERENCES subscriptions (id) ON DELETE CASCADE,
  scope_id        UUID        NOT NULL REFERENCES scopes (id),
  selected        BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (subscription_id, scope_id)
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  subscription_id  UUID        NOT NULL REFERENCES subscriptions (id) ON DELETE CASCADE,
  document_type_id UUID        REFERENCES document_types (id),
  filename         TEXT        NOT NULL,
  storage_path     TEXT        NOT NULL UNIQUE,
  size             BIGINT      NOT NULL CHECK (size >= 0),
  content_type     TEXT        NOT NULL,
  archive          BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_active_slot",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_active_slot
  ON documents (subscription_id, document_type_id)
  WHERE archive = FALSE AND document_type_id IS NOT NULL;`,
	},
	{
		Name: "create_table_messages",
		SQL: `CREATE TABLE IF NOT EXISTS messages (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  subscription_id UUID        REFERENCES subscriptions (id) ON DELETE CASCADE,
  enrollment_id   UUID        REFERENCES enrollments (id) ON DELETE CASCADE,
  content         TEXT        NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (subscription_id IS NOT NULL OR enrollment_id IS NOT NULL)
);`,
	},
	{
		Name: "create_table_role_grants",
		SQL: `CREATE TABLE IF NOT EXISTS role_grants (
  actor_id      TEXT        NOT NULL,
  verb          TEXT        NOT NULL,
  resource_type TEXT        NOT NULL,
  resource_id   TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (actor_id, verb, resource_type, resource_id)
);`,
	},
	{
		Name: "create_index_role_grants_resource",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_role_grants_resource ON role_grants (resource_type, resource_id, verb);`,
	},
	{
		Name: "create_index_subscriptions_enrollment",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_subscriptions_enrollment ON subscriptions (enrollment_id, created_at);`,
	},
}

// EnsureMigrated checks if the 'enrollments' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.enrollments') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
