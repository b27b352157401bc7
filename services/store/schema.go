// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

// schemaSQL is the single source of truth for the database schema.
// Every statement is idempotent so Open can apply it unconditionally.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'member' CHECK(role IN ('member', 'admin', 'super_admin')),
	onboarding_completed_at TEXT,
	last_login_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS processes (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'active', 'retired')),
	process_type TEXT NOT NULL DEFAULT 'support' CHECK(process_type IN ('key', 'support')),
	charter TEXT NOT NULL DEFAULT '{}',
	approach TEXT NOT NULL DEFAULT '{}',
	deployment TEXT NOT NULL DEFAULT '{}',
	learning TEXT NOT NULL DEFAULT '{}',
	integration TEXT NOT NULL DEFAULT '{}',
	asana_project_id TEXT,
	asana_snapshot TEXT,
	snapshot_refreshed_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processes_owner ON processes(owner_id);

CREATE TABLE IF NOT EXISTS metrics (
	id TEXT PRIMARY KEY,
	process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	cadence TEXT NOT NULL DEFAULT 'monthly' CHECK(cadence IN ('weekly', 'monthly', 'quarterly', 'annual')),
	unit TEXT NOT NULL DEFAULT 'number',
	target_value REAL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metrics_process ON metrics(process_id);

CREATE TABLE IF NOT EXISTS metric_entries (
	id TEXT PRIMARY KEY,
	metric_id TEXT NOT NULL REFERENCES metrics(id) ON DELETE CASCADE,
	value REAL NOT NULL,
	entry_date TEXT NOT NULL,
	entry_month TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'manual',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_metric ON metric_entries(metric_id, entry_date);

-- The monthly adoption auto-log must be idempotent per calendar month.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_auto_month
	ON metric_entries(metric_id, entry_month) WHERE source = 'adoption_auto';

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	done INTEGER NOT NULL DEFAULT 0,
	due_date TEXT,
	priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
	assignee_id TEXT REFERENCES users(id) ON DELETE SET NULL,
	origin TEXT NOT NULL DEFAULT 'hub' CHECK(origin IN ('hub', 'asana')),
	completed_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_process ON tasks(process_id);

CREATE TABLE IF NOT EXISTS task_dependencies (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	depends_on_task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	created_at TEXT NOT NULL,
	PRIMARY KEY (task_id, depends_on_task_id)
);

CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS surveys (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS survey_questions (
	id TEXT PRIMARY KEY,
	survey_id TEXT NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	prompt TEXT NOT NULL,
	question_type TEXT NOT NULL CHECK(question_type IN
		('rating', 'yes_no', 'nps', 'multiple_choice', 'checkbox', 'open_text', 'matrix')),
	choices TEXT NOT NULL DEFAULT '[]',
	matrix_rows TEXT NOT NULL DEFAULT '[]',
	matrix_columns TEXT NOT NULL DEFAULT '[]',
	position INTEGER NOT NULL DEFAULT 0
);

-- Survey templates are portable: their questions intentionally carry
-- no sort_order column and no metric linkage.
CREATE TABLE IF NOT EXISTS survey_templates (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_questions (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES survey_templates(id) ON DELETE CASCADE,
	prompt TEXT NOT NULL,
	question_type TEXT NOT NULL CHECK(question_type IN
		('rating', 'yes_no', 'nps', 'multiple_choice', 'checkbox', 'open_text', 'matrix')),
	choices TEXT NOT NULL DEFAULT '[]',
	matrix_rows TEXT NOT NULL DEFAULT '[]',
	matrix_columns TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS survey_waves (
	id TEXT PRIMARY KEY,
	survey_id TEXT NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	label TEXT NOT NULL,
	opened_at TEXT NOT NULL,
	closed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_waves_survey ON survey_waves(survey_id, opened_at);

CREATE TABLE IF NOT EXISTS survey_responses (
	id TEXT PRIMARY KEY,
	wave_id TEXT NOT NULL REFERENCES survey_waves(id) ON DELETE CASCADE,
	respondent TEXT NOT NULL DEFAULT '',
	submitted_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS survey_answers (
	id TEXT PRIMARY KEY,
	response_id TEXT NOT NULL REFERENCES survey_responses(id) ON DELETE CASCADE,
	question_id TEXT NOT NULL REFERENCES survey_questions(id) ON DELETE CASCADE,
	number_value REAL,
	choice_index INTEGER,
	choice_indices TEXT,
	text_value TEXT NOT NULL DEFAULT '',
	row_label TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_answers_response ON survey_answers(response_id);

CREATE TABLE IF NOT EXISTS objectives (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	target_value REAL NOT NULL,
	source_type TEXT NOT NULL CHECK(source_type IN ('metric', 'adli')),
	metric_id TEXT REFERENCES metrics(id) ON DELETE SET NULL,
	adli_threshold REAL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS baldrige_mappings (
	id TEXT PRIMARY KEY,
	process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	question_code TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (process_id, question_code)
);

CREATE TABLE IF NOT EXISTS asana_tokens (
	user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	expires_at TEXT,
	workspace_id TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`
