package store

// Schema statements run one at a time and are safe to repeat.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS feeds (
		id                   BIGSERIAL PRIMARY KEY,
		user_id              BIGINT,
		name                 TEXT NOT NULL UNIQUE,
		brand                TEXT NOT NULL DEFAULT '',
		type                 TEXT NOT NULL DEFAULT 'dry',
		animal_type          TEXT NOT NULL DEFAULT 'dog',
		category             TEXT NOT NULL DEFAULT 'adult',
		metabolizable_energy DOUBLE PRECISION NOT NULL DEFAULT 0,
		protein              DOUBLE PRECISION NOT NULL DEFAULT 0,
		fat                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		fiber                DOUBLE PRECISION NOT NULL DEFAULT 0,
		ash                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		moisture             DOUBLE PRECISION NOT NULL DEFAULT 0,
		carbohydrates        DOUBLE PRECISION NOT NULL DEFAULT 0,
		calcium              DOUBLE PRECISION NOT NULL DEFAULT 0,
		phosphorus           DOUBLE PRECISION NOT NULL DEFAULT 0,
		vitamin_a            DOUBLE PRECISION NOT NULL DEFAULT 0,
		vitamin_d            DOUBLE PRECISION NOT NULL DEFAULT 0,
		ingredients          TEXT NOT NULL DEFAULT '',
		is_public            BOOLEAN NOT NULL DEFAULT TRUE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feeds_public ON feeds (name) WHERE user_id IS NULL`,
	`CREATE TABLE IF NOT EXISTS feed_imports (
		id         TEXT PRIMARY KEY,
		source     TEXT NOT NULL DEFAULT '',
		imported   INTEGER NOT NULL DEFAULT 0,
		errors     INTEGER NOT NULL DEFAULT 0,
		total_rows INTEGER NOT NULL DEFAULT 0,
		replaced   BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS feeds (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id              INTEGER,
		name                 TEXT NOT NULL UNIQUE,
		brand                TEXT NOT NULL DEFAULT '',
		type                 TEXT NOT NULL DEFAULT 'dry',
		animal_type          TEXT NOT NULL DEFAULT 'dog',
		category             TEXT NOT NULL DEFAULT 'adult',
		metabolizable_energy REAL NOT NULL DEFAULT 0,
		protein              REAL NOT NULL DEFAULT 0,
		fat                  REAL NOT NULL DEFAULT 0,
		fiber                REAL NOT NULL DEFAULT 0,
		ash                  REAL NOT NULL DEFAULT 0,
		moisture             REAL NOT NULL DEFAULT 0,
		carbohydrates        REAL NOT NULL DEFAULT 0,
		calcium              REAL NOT NULL DEFAULT 0,
		phosphorus           REAL NOT NULL DEFAULT 0,
		vitamin_a            REAL NOT NULL DEFAULT 0,
		vitamin_d            REAL NOT NULL DEFAULT 0,
		ingredients          TEXT NOT NULL DEFAULT '',
		is_public            BOOLEAN NOT NULL DEFAULT 1,
		created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feeds_user ON feeds (user_id)`,
	`CREATE TABLE IF NOT EXISTS feed_imports (
		id         TEXT PRIMARY KEY,
		source     TEXT NOT NULL DEFAULT '',
		imported   INTEGER NOT NULL DEFAULT 0,
		errors     INTEGER NOT NULL DEFAULT 0,
		total_rows INTEGER NOT NULL DEFAULT 0,
		replaced   INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}
