package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS credentials (
    server_url           TEXT PRIMARY KEY,
    username             TEXT NOT NULL,
    token                TEXT NOT NULL,
    saved_at             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    server_url           TEXT NOT NULL,
    key                  TEXT NOT NULL,
    value                TEXT NOT NULL,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (server_url, key)
);

CREATE INDEX IF NOT EXISTS idx_credentials_saved ON credentials(saved_at);
`
