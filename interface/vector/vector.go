package vector

import (
	"context"
	"fmt"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/service"
)

// Service is the interface of a remote vector-store
type Service interface {
	// GetTable returns the table with the given (qualified) id
	// Raise service.ErrNotFound
	GetTable(ctx context.Context, id string) (common.Table, error)
	// DeleteTable deletes the table and all its features
	// Raise service.ErrNotFound
	DeleteTable(ctx context.Context, id string) error
	// CreateTable creates a table with the model
	// Raise service.ErrAlreadyExists
	CreateTable(ctx context.Context, table common.Table) (common.Table, error)
}

// TxService is a Service running in a transaction
type TxService interface {
	Service
	// Must be call to apply transaction
	Commit() error
	// Might be called to cancel the transaction (no effect if commit has already be done)
	Rollback() error
}

// DBService is a Service able to start transactions
type DBService interface {
	Service
	StartTransaction(ctx context.Context) (TxService, error)
}

// UnitOfWork runs a function and commit the database at the end or rollback if the function returns an error
func UnitOfWork(ctx context.Context, db DBService, f func(tx TxService) error) (err error) {
	txn, err := db.StartTransaction(ctx)
	if err != nil {
		return fmt.Errorf("uow.starttransaction: %w", err)
	}

	defer func() {
		if e := txn.Rollback(); err == nil {
			err = e
		}
	}()

	if err = f(txn); err != nil {
		return fmt.Errorf("uow.%w", err)
	}

	return txn.Commit()
}

// ValidateTable checks the id, the geometry and the fields of the table
func ValidateTable(table common.Table) error {
	if _, _, err := common.SplitQualifiedID(table.ID); err != nil {
		return fmt.Errorf("ValidateTable: %w", err)
	}
	switch table.Model.Geometry {
	case common.GeometryPolygon, common.GeometryMultiPolygon:
	default:
		return fmt.Errorf("ValidateTable: unsupported geometry type '%s'", table.Model.Geometry)
	}
	names := service.NewStringSet()
	for _, f := range table.Model.Fields {
		if f.Name == "" {
			return fmt.Errorf("ValidateTable: empty field name")
		}
		if names.Exists(f.Name) {
			return fmt.Errorf("ValidateTable: duplicate field '%s'", f.Name)
		}
		names.Push(f.Name)
		switch f.Type {
		case common.FieldString, common.FieldInt, common.FieldFloat, common.FieldDateTime:
		default:
			return fmt.Errorf("ValidateTable: unsupported type '%s' for field '%s'", f.Type, f.Name)
		}
	}
	return nil
}
