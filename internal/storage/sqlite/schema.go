package sqlite

const schema = `
-- Node table: files, commands, and directories.
-- For files the name is the path relative to the project root; for
-- commands it is the shell invocation. flags mark pending work.
CREATE TABLE IF NOT EXISTS node (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dir INTEGER NOT NULL DEFAULT 0,
    type INTEGER NOT NULL,
    name TEXT NOT NULL,
    flags INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_node_flags ON node(flags);
CREATE INDEX IF NOT EXISTS idx_node_dir ON node(dir);
CREATE INDEX IF NOT EXISTS idx_node_name ON node(name);

-- File-links: dependency edges whose source is a file.
CREATE TABLE IF NOT EXISTS link (
    from_id INTEGER NOT NULL,
    to_id INTEGER NOT NULL,
    PRIMARY KEY (from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_link_to ON link(to_id);

-- Cmd-links: dependency edges whose source is a command.
CREATE TABLE IF NOT EXISTS cmdlink (
    from_id INTEGER NOT NULL,
    to_id INTEGER NOT NULL,
    PRIMARY KEY (from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_cmdlink_to ON cmdlink(to_id);

-- Config table: build settings that travel with the database.
CREATE TABLE IF NOT EXISTS config (
    lval TEXT PRIMARY KEY,
    rval TEXT NOT NULL DEFAULT ''
);
`
