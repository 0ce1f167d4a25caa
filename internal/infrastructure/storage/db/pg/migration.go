package postgresdb

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS swaps (
	id                       TEXT PRIMARY KEY,
	source_booking_id        TEXT        NOT NULL,
	owner_id                 TEXT        NOT NULL,
	proposer_id              TEXT        NOT NULL,
	status                   TEXT        NOT NULL,
	acceptance_strategy      TEXT        NOT NULL,
	booking_exchange_allowed BOOLEAN     NOT NULL,
	cash_allowed             BOOLEAN     NOT NULL,
	minimum_cash_amount      NUMERIC     NOT NULL DEFAULT 0,
	target                   JSONB,
	auction_id               TEXT        NOT NULL DEFAULT '',
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auctions (
	id                      TEXT PRIMARY KEY,
	swap_id                 TEXT        NOT NULL REFERENCES swaps(id),
	owner_id                TEXT        NOT NULL,
	status                  TEXT        NOT NULL,
	end_date                TIMESTAMPTZ NOT NULL,
	allow_booking_proposals BOOLEAN     NOT NULL,
	allow_cash_proposals    BOOLEAN     NOT NULL,
	minimum_cash_offer      NUMERIC     NOT NULL DEFAULT 0,
	auto_select_after_hours INTEGER     NOT NULL DEFAULT 0,
	winning_proposal_id     TEXT        NOT NULL DEFAULT '',
	auto_selected           BOOLEAN     NOT NULL DEFAULT FALSE,
	unresolved              BOOLEAN     NOT NULL DEFAULT FALSE,
	cancelled               BOOLEAN     NOT NULL DEFAULT FALSE,
	settled                 BOOLEAN     NOT NULL DEFAULT FALSE,
	last_sequence           BIGINT      NOT NULL DEFAULT 0,
	ended_at                TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_auctions_swap ON auctions(swap_id);
CREATE INDEX IF NOT EXISTS idx_auctions_unsettled ON auctions(end_date)
	WHERE settled = FALSE;

CREATE TABLE IF NOT EXISTS proposals (
	id                TEXT PRIMARY KEY,
	auction_id        TEXT        NOT NULL REFERENCES auctions(id),
	swap_id           TEXT        NOT NULL,
	proposer_id       TEXT        NOT NULL,
	type              TEXT        NOT NULL,
	booking_id        TEXT        NOT NULL DEFAULT '',
	amount            NUMERIC,
	currency          TEXT        NOT NULL DEFAULT '',
	payment_method_id TEXT        NOT NULL DEFAULT '',
	escrow_agreed     BOOLEAN     NOT NULL DEFAULT FALSE,
	message           TEXT        NOT NULL DEFAULT '',
	conditions        TEXT[]      NOT NULL DEFAULT '{}',
	status            TEXT        NOT NULL,
	sequence          BIGINT      NOT NULL,
	idempotency_key   TEXT        NOT NULL DEFAULT '',
	escrow_id         TEXT        NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (auction_id, sequence)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_proposals_pending_booking
	ON proposals(auction_id, proposer_id, booking_id)
	WHERE status = 'pending' AND type = 'booking';
CREATE UNIQUE INDEX IF NOT EXISTS idx_proposals_idempotency
	ON proposals(auction_id, proposer_id, idempotency_key)
	WHERE idempotency_key <> '';
`

func migrateDb(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
