package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createAccountsTable,
		createLedgerStateTable,
		createEventsTable,
		createTicketsTable,
		createEventValidatorsTable,
		createEventBalancesTable,
		createOwnerTicketsTable,
		createOrganizerEventsTable,
		createEventTicketsTable,
		createEventsStartIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
    account_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE,
    password_hash VARCHAR(100) NOT NULL DEFAULT '',
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    kind VARCHAR(10) NOT NULL DEFAULT 'user',
    balance BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (kind IN ('user', 'system')),
    CHECK (balance >= 0)
);`

const createLedgerStateTable = `
CREATE TABLE IF NOT EXISTS ledger_state (
    id SMALLINT PRIMARY KEY,
    next_event_id BIGINT NOT NULL DEFAULT 1,
    next_ticket_id BIGINT NOT NULL DEFAULT 1,
    paused BOOLEAN NOT NULL DEFAULT FALSE,
    admin_account BIGINT NOT NULL REFERENCES accounts(account_id),
    custody_account BIGINT NOT NULL REFERENCES accounts(account_id),
    platform_account BIGINT NOT NULL REFERENCES accounts(account_id),

    CHECK (id = 1)
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGINT PRIMARY KEY,
    organizer BIGINT NOT NULL REFERENCES accounts(account_id),
    name VARCHAR(500) NOT NULL,
    description TEXT,
    venue VARCHAR(500) NOT NULL DEFAULT '',
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    ticket_price BIGINT NOT NULL,
    total_supply BIGINT NOT NULL,
    sold_count BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    refund_allowed BOOLEAN NOT NULL DEFAULT FALSE,
    transferable BOOLEAN NOT NULL DEFAULT TRUE,
    metadata_uri TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (ticket_price >= 0),
    CHECK (total_supply > 0),
    CHECK (sold_count >= 0 AND sold_count <= total_supply),
    CHECK (start_time < end_time)
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id BIGINT PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    owner BIGINT NOT NULL REFERENCES accounts(account_id),
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    purchase_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    used_time TIMESTAMPTZ,

    CHECK (is_used = (used_time IS NOT NULL))
);`

const createEventValidatorsTable = `
CREATE TABLE IF NOT EXISTS event_validators (
    event_id BIGINT NOT NULL REFERENCES events(id),
    validator BIGINT NOT NULL REFERENCES accounts(account_id),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    validated_count BIGINT NOT NULL DEFAULT 0,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (event_id, validator),
    CHECK (validated_count >= 0)
);`

const createEventBalancesTable = `
CREATE TABLE IF NOT EXISTS event_balances (
    event_id BIGINT PRIMARY KEY REFERENCES events(id),
    available_balance BIGINT NOT NULL DEFAULT 0,
    locked_balance BIGINT NOT NULL DEFAULT 0,
    total_withdrawn BIGINT NOT NULL DEFAULT 0,

    CHECK (available_balance >= 0),
    CHECK (locked_balance >= 0),
    CHECK (total_withdrawn >= 0)
);`

const createOwnerTicketsTable = `
CREATE TABLE IF NOT EXISTS owner_tickets (
    owner BIGINT NOT NULL REFERENCES accounts(account_id),
    ticket_id BIGINT NOT NULL,
    event_id BIGINT NOT NULL REFERENCES events(id),

    PRIMARY KEY (owner, ticket_id)
);`

const createOrganizerEventsTable = `
CREATE TABLE IF NOT EXISTS organizer_events (
    organizer BIGINT NOT NULL REFERENCES accounts(account_id),
    event_id BIGINT NOT NULL REFERENCES events(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (organizer, event_id)
);`

const createEventTicketsTable = `
CREATE TABLE IF NOT EXISTS event_tickets (
    event_id BIGINT NOT NULL REFERENCES events(id),
    ticket_id BIGINT NOT NULL,
    owner BIGINT NOT NULL REFERENCES accounts(account_id),

    PRIMARY KEY (event_id, ticket_id)
);`

const createEventsStartIndex = `
CREATE INDEX IF NOT EXISTS events_start_time_idx
ON events (start_time);`
