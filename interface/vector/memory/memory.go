package memory

import (
	"context"
	"sync"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	"github.com/airbusgeo/geocube-provisioner/service"
)

// Op is an operation of the vector store, used to inject faults and count calls
type Op string

// Operations
const (
	OpGetTable    Op = "GetTable"
	OpDeleteTable Op = "DeleteTable"
	OpCreateTable Op = "CreateTable"
)

// Store is an in-memory implementation of vector.Service
type Store struct {
	mu     sync.Mutex
	tables map[string]common.Table
	faults map[Op]error
	calls  map[Op][]string
}

// New creates an empty vector store
func New() *Store {
	return &Store{
		tables: map[string]common.Table{},
		faults: map[Op]error{},
		calls:  map[Op][]string{},
	}
}

// SetFault makes the next calls to op fail with err (nil to remove the fault)
func (s *Store) SetFault(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
	} else {
		s.faults[op] = err
	}
}

// Calls returns the ids passed to op, in order
func (s *Store) Calls(op Op) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls[op]...)
}

func (s *Store) call(op Op, id string) error {
	s.calls[op] = append(s.calls[op], id)
	return s.faults[op]
}

// GetTable implements vector.Service
func (s *Store) GetTable(ctx context.Context, id string) (common.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpGetTable, id); err != nil {
		return common.Table{}, err
	}
	t, ok := s.tables[id]
	if !ok {
		return common.Table{}, service.ErrNotFound{Type: "table", ID: id}
	}
	return t, nil
}

// DeleteTable implements vector.Service
func (s *Store) DeleteTable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpDeleteTable, id); err != nil {
		return err
	}
	if _, ok := s.tables[id]; !ok {
		return service.ErrNotFound{Type: "table", ID: id}
	}
	delete(s.tables, id)
	return nil
}

// CreateTable implements vector.Service
func (s *Store) CreateTable(ctx context.Context, table common.Table) (common.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpCreateTable, table.ID); err != nil {
		return common.Table{}, err
	}
	if err := vector.ValidateTable(table); err != nil {
		return common.Table{}, err
	}
	if _, ok := s.tables[table.ID]; ok {
		return common.Table{}, service.ErrAlreadyExists{Type: "table", ID: table.ID}
	}
	table.Model.Fields = append([]common.Field{}, table.Model.Fields...)
	s.tables[table.ID] = table
	return table, nil
}
