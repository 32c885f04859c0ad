package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/lib/pq"
)

//go:embed db.sql
var schema string

// FeatureSchema is the postgres schema of the feature tables
const FeatureSchema = "features"

// maximum length of a postgres identifier
const maxIdentifierLength = 63

// pgInterface allows to use either a sql.DB or a sql.Tx
type pgInterface interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// BackendTx implements vector.TxService
type BackendTx struct {
	*sql.Tx
	Backend
}

// BackendDB implements vector.DBService
type BackendDB struct {
	*sql.DB
	Backend
}

// Backend implements vector.Service
type Backend struct {
	pgInterface
}

/* http://www.postgresql.org/docs/9.3/static/errcodes-appendix.html */
const (
	noError         = "00000"
	uniqueViolation = "23505"
	duplicateTable  = "42P07"

	notPqError = "X"
)

func pqErrorCode(err error) pq.ErrorCode {
	if err == nil {
		return noError
	}
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		return pqerr.Code
	}
	return notPqError
}

// New creates a new backend using Postgres
func New(ctx context.Context, dbConnection string) (*BackendDB, error) {
	db, err := sql.Open("postgres", dbConnection)
	if err != nil {
		return nil, fmt.Errorf("sql.open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, service.MakeTemporary(fmt.Errorf("sql.ping: %w", err))
	}
	return &BackendDB{db, Backend{pgInterface: db}}, nil
}

// Migrate creates the registry of the tables and the schema of the features, if they do not exist
func (bdb BackendDB) Migrate(ctx context.Context) error {
	for _, q := range strings.Split(schema, ";") {
		if q = strings.TrimSpace(q); q == "" {
			continue
		}
		if _, err := bdb.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("Migrate: %w", err)
		}
	}
	return nil
}

// StartTransaction implements vector.DBService
func (bdb BackendDB) StartTransaction(ctx context.Context) (vector.TxService, error) {
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return BackendTx{}, err
	}
	return BackendTx{tx, Backend{pgInterface: tx}}, nil
}

// Rollback overloads sql.Tx.Rollback to be idempotent
func (btx BackendTx) Rollback() error {
	err := btx.Tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// CreateTable implements vector.Service, registering the table and creating its feature table in one transaction
func (bdb BackendDB) CreateTable(ctx context.Context, table common.Table) (common.Table, error) {
	var created common.Table
	err := vector.UnitOfWork(ctx, bdb, func(tx vector.TxService) (err error) {
		created, err = tx.CreateTable(ctx, table)
		return err
	})
	return created, err
}

// DeleteTable implements vector.Service, unregistering the table and dropping its feature table in one transaction
func (bdb BackendDB) DeleteTable(ctx context.Context, id string) error {
	return vector.UnitOfWork(ctx, bdb, func(tx vector.TxService) error {
		return tx.DeleteTable(ctx, id)
	})
}

// FeatureTable returns the quoted name of the table storing the features of the vector table
func FeatureTable(id string) string {
	return FeatureSchema + "." + pq.QuoteIdentifier(id)
}

func columnType(t common.FieldType) (string, error) {
	switch t {
	case common.FieldString:
		return "text", nil
	case common.FieldInt:
		return "bigint", nil
	case common.FieldFloat:
		return "double precision", nil
	case common.FieldDateTime:
		return "timestamp with time zone", nil
	}
	return "", fmt.Errorf("unsupported field type '%s'", t)
}

func createTableQuery(table common.Table) (string, error) {
	columns := []string{
		"fid bigserial NOT NULL PRIMARY KEY",
		fmt.Sprintf("geom geometry(%s, 4326) NOT NULL", table.Model.Geometry),
	}
	for _, f := range table.Model.Fields {
		t, err := columnType(f.Type)
		if err != nil {
			return "", err
		}
		columns = append(columns, pq.QuoteIdentifier(f.Name)+" "+t)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", FeatureTable(table.ID), strings.Join(columns, ", ")), nil
}

// GetTable implements vector.Service
func (b Backend) GetTable(ctx context.Context, id string) (common.Table, error) {
	table := common.Table{ID: id}
	err := b.QueryRowContext(ctx, "SELECT name, model FROM vector_table WHERE id = $1", id).Scan(&table.Name, &table.Model)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.Table{}, service.ErrNotFound{Type: "table", ID: id}
	case err != nil:
		return common.Table{}, fmt.Errorf("GetTable.QueryRowContext: %w", err)
	}
	return table, nil
}

// CreateTable implements vector.Service
func (b Backend) CreateTable(ctx context.Context, table common.Table) (common.Table, error) {
	if err := vector.ValidateTable(table); err != nil {
		return common.Table{}, err
	}
	if len(table.ID) > maxIdentifierLength {
		return common.Table{}, fmt.Errorf("CreateTable: id '%s' is too long (max %d)", table.ID, maxIdentifierLength)
	}
	query, err := createTableQuery(table)
	if err != nil {
		return common.Table{}, fmt.Errorf("CreateTable: %w", err)
	}

	_, err = b.ExecContext(ctx, "INSERT INTO vector_table (id, name, model) VALUES ($1, $2, $3)", table.ID, table.Name, table.Model)
	switch pqErrorCode(err) {
	case noError:
	case uniqueViolation:
		return common.Table{}, service.ErrAlreadyExists{Type: "table", ID: table.ID}
	default:
		return common.Table{}, fmt.Errorf("CreateTable.insert: %w", err)
	}

	_, err = b.ExecContext(ctx, query)
	switch pqErrorCode(err) {
	case noError:
		return table, nil
	case duplicateTable:
		return common.Table{}, service.ErrAlreadyExists{Type: "feature table", ID: table.ID}
	default:
		return common.Table{}, fmt.Errorf("CreateTable.create: %w", err)
	}
}

// DeleteTable implements vector.Service
func (b Backend) DeleteTable(ctx context.Context, id string) error {
	res, err := b.ExecContext(ctx, "DELETE FROM vector_table WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("DeleteTable.delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("DeleteTable.RowsAffected: %w", err)
	} else if n == 0 {
		return service.ErrNotFound{Type: "table", ID: id}
	}

	if _, err = b.ExecContext(ctx, "DROP TABLE IF EXISTS "+FeatureTable(id)); err != nil {
		return fmt.Errorf("DeleteTable.drop: %w", err)
	}
	return nil
}
