package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silorecon/internal/schema"
	"silorecon/internal/storage"
	"silorecon/internal/storage/sqldb"
)

func schemaOf(names ...string) schema.Table {
	var t schema.Table
	for _, n := range names {
		t.Columns = append(t.Columns, schema.Column{Name: n, Kind: schema.Text})
	}
	return t
}

func TestBindSQL(t *testing.T) {
	t.Parallel()

	stmts, err := bindSQL(storage.Namespace{Database: "recon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USE `recon`"}, stmts)

	stmts, err = bindSQL(storage.Namespace{})
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

// TestDDLOutsideTransaction checks that Tx does not wrap DDL: MySQL would
// commit it implicitly anyway.
func TestDDLOutsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo, err := sqldb.NewRepository(ctx, db, Dialect)
	require.NoError(t, err)
	defer repo.Close()

	mock.ExpectExec("DROP TABLE IF EXISTS `silo_usage`;").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `silo_usage` (\n  `Product` TEXT\n);").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `silo_usage` (`Product`) VALUES (?)").
		WithArgs("P1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tbl := schemaOf("Product")
	err = repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
		if err := storage.RecreateTable(ctx, "mysql", tx, "silo_usage", tbl); err != nil {
			return err
		}
		_, err := tx.CopyFrom(ctx, "silo_usage", []string{"Product"}, [][]any{{"P1"}})
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
