package storage

// currentSchema is the live-state database: one row per account/profile/
// interaction/message/moderation request/news item, mutated in place.
// Table and column names follow the retrieved Rust source's schema
// (accounts, account_state, profiles, account_interaction,
// pending_messages, moderation_requests, content, news,
// news_translations) adapted to SQLite column types.
const currentSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id              INTEGER PRIMARY KEY,
	uuid                     TEXT NOT NULL UNIQUE,
	state                    INTEGER NOT NULL DEFAULT 0,
	permissions              INTEGER NOT NULL DEFAULT 0,
	visibility               INTEGER NOT NULL DEFAULT 0,
	created_at               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS account_sync_versions (
	account_id               INTEGER PRIMARY KEY REFERENCES accounts(account_id),
	account_sync_version     INTEGER NOT NULL DEFAULT 0,
	profile_sync_version     INTEGER NOT NULL DEFAULT 0,
	news_sync_version        INTEGER NOT NULL DEFAULT 0,
	content_sync_version     INTEGER NOT NULL DEFAULT 0,
	sent_likes_sync_version  INTEGER NOT NULL DEFAULT 0,
	received_likes_sync_version INTEGER NOT NULL DEFAULT 0,
	matches_sync_version     INTEGER NOT NULL DEFAULT 0,
	sent_blocks_sync_version INTEGER NOT NULL DEFAULT 0,
	received_blocks_sync_version INTEGER NOT NULL DEFAULT 0,
	unread_news_count        INTEGER NOT NULL DEFAULT 0,
	publication_id_at_reset  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS profiles (
	account_id               INTEGER PRIMARY KEY REFERENCES accounts(account_id),
	name                     TEXT NOT NULL DEFAULT '',
	age                      INTEGER NOT NULL DEFAULT 18,
	profile_text             TEXT NOT NULL DEFAULT '',
	attributes_json          TEXT NOT NULL DEFAULT '{}',
	filters_json             TEXT NOT NULL DEFAULT '{}',
	search_age_min           INTEGER NOT NULL DEFAULT 18,
	search_age_max           INTEGER NOT NULL DEFAULT 99,
	search_group_flags       INTEGER NOT NULL DEFAULT 0,
	last_seen_time           INTEGER NOT NULL DEFAULT 0,
	version_uuid             TEXT NOT NULL DEFAULT '',
	location_x               INTEGER NOT NULL DEFAULT 0,
	location_y               INTEGER NOT NULL DEFAULT 0,
	name_moderation_accepted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS account_interaction (
	account_id_low           INTEGER NOT NULL,
	account_id_high          INTEGER NOT NULL,
	state_number             INTEGER NOT NULL DEFAULT 0,
	sender_account_id        INTEGER,
	two_way_block            INTEGER NOT NULL DEFAULT 0,
	message_counter          INTEGER NOT NULL DEFAULT 0,
	latest_viewed_by_low     INTEGER NOT NULL DEFAULT 0,
	latest_viewed_by_high    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (account_id_low, account_id_high)
);

CREATE TABLE IF NOT EXISTS pending_messages (
	account_id_sender        INTEGER NOT NULL,
	account_id_receiver      INTEGER NOT NULL,
	message_number           INTEGER NOT NULL,
	sender_client_id         TEXT NOT NULL,
	sender_client_local_id   INTEGER NOT NULL,
	message_bytes            BLOB NOT NULL,
	unix_time                INTEGER NOT NULL,
	sender_acknowledgement   INTEGER NOT NULL DEFAULT 0,
	receiver_acknowledgement INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (account_id_sender, account_id_receiver, message_number)
);

CREATE TABLE IF NOT EXISTS content (
	content_id               INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id               INTEGER NOT NULL REFERENCES accounts(account_id),
	slot                     INTEGER,
	state                    INTEGER NOT NULL DEFAULT 0,
	is_secure_capture        INTEGER NOT NULL DEFAULT 0,
	face_detected            INTEGER NOT NULL DEFAULT 0,
	content_type             TEXT NOT NULL DEFAULT '',
	uploaded_at              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS moderation_requests (
	request_id               INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id               INTEGER NOT NULL REFERENCES accounts(account_id),
	queue_type               INTEGER NOT NULL,
	queue_number             INTEGER NOT NULL,
	state                    INTEGER NOT NULL DEFAULT 0,
	moderator_id             INTEGER,
	content_id               INTEGER,
	text_snapshot            TEXT NOT NULL DEFAULT '',
	rejection_category       INTEGER NOT NULL DEFAULT 0,
	rejection_details        TEXT NOT NULL DEFAULT '',
	created_at               INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moderation_queue ON moderation_requests(queue_type, state, queue_number);

CREATE TABLE IF NOT EXISTS push_notification_state (
	account_id               INTEGER PRIMARY KEY REFERENCES accounts(account_id),
	fcm_device_token         TEXT,
	pending_notification_flags INTEGER NOT NULL DEFAULT 0,
	push_notification_sent  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS news (
	news_id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	publication_id           INTEGER,
	first_publication_time   INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_news_publication ON news(publication_id) WHERE publication_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS news_translations (
	news_id                  INTEGER NOT NULL REFERENCES news(news_id),
	locale                   TEXT NOT NULL,
	title                    TEXT NOT NULL DEFAULT '',
	body                     TEXT NOT NULL DEFAULT '',
	version                  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (news_id, locale)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	account_id               INTEGER PRIMARY KEY REFERENCES accounts(account_id),
	token                    TEXT NOT NULL UNIQUE,
	issued_at                INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS google_identities (
	google_subject           TEXT PRIMARY KEY,
	account_id               INTEGER NOT NULL UNIQUE REFERENCES accounts(account_id),
	email                    TEXT NOT NULL,
	linked_at                INTEGER NOT NULL
);
`

// historySchema records append-only audit events. Nothing here is ever
// updated or deleted; each row is a fact about something that happened.
const historySchema = `
CREATE TABLE IF NOT EXISTS moderation_decisions (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id               INTEGER NOT NULL,
	account_id               INTEGER NOT NULL,
	queue_type               INTEGER NOT NULL,
	outcome                  INTEGER NOT NULL,
	moderator_id             INTEGER,
	rejection_category       INTEGER NOT NULL DEFAULT 0,
	decided_at               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS account_state_changes (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id               INTEGER NOT NULL,
	previous_state           INTEGER NOT NULL,
	new_state                INTEGER NOT NULL,
	changed_at               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS interaction_events (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id_low           INTEGER NOT NULL,
	account_id_high          INTEGER NOT NULL,
	event                    TEXT NOT NULL,
	actor_account_id         INTEGER NOT NULL,
	occurred_at              INTEGER NOT NULL
);
`
