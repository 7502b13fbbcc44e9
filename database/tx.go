package database

import (
	"context"
	"database/sql"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan interface.
//
// Repository'ler bu interface'i dependency olarak alır —
// normal operasyonlarda *sql.DB, transaction içinde *sql.Tx geçilebilir.
// Go'nun database/sql paketinde bu interface tanımlı değildir.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
