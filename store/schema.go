package store

const Schema = `
CREATE TABLE IF NOT EXISTS challenges (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	plan TEXT NOT NULL,
	initial_balance REAL NOT NULL,
	equity REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	failure_reason TEXT NOT NULL DEFAULT '',
	max_daily_loss_pct REAL NOT NULL,
	max_total_loss_pct REAL NOT NULL,
	profit_target_pct REAL NOT NULL,
	leverage REAL NOT NULL,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	challenge_id TEXT NOT NULL REFERENCES challenges(id),
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	is_open INTEGER NOT NULL DEFAULT 1,
	close_price REAL NOT NULL DEFAULT 0,
	realized_pl REAL NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	screenshot_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges(status);
CREATE INDEX IF NOT EXISTS idx_challenges_user ON challenges(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_challenge ON orders(challenge_id);
CREATE INDEX IF NOT EXISTS idx_orders_open ON orders(challenge_id, is_open);
`
