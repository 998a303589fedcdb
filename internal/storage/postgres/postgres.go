// Package postgres implements the service stores on top of a pgx pool.
//
// The stores expect the following tables:
//
//	CREATE TABLE users (
//	    id         UUID PRIMARY KEY,
//	    email      VARCHAR(255) NOT NULL UNIQUE,
//	    password   TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE tasks (
//	    id           BIGSERIAL PRIMARY KEY,
//	    parent_id    BIGINT REFERENCES tasks (id) ON DELETE CASCADE,
//	    owner_id     UUID NOT NULL REFERENCES users (id),
//	    status       VARCHAR(4) NOT NULL CHECK (status IN ('todo', 'done')),
//	    priority     SMALLINT NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 5),
//	    title        VARCHAR(255) NOT NULL,
//	    description  TEXT,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    completed_at TIMESTAMPTZ,
//	    CHECK ((status = 'done') = (completed_at IS NOT NULL))
//	);
package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
