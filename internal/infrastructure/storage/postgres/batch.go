package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"smartfilter/internal/domain/filter"
	"smartfilter/internal/metadata"
)

// BatchInserter loads rows with the COPY protocol. Used by the seed command.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice performs bulk insert from a slice of rows. Requires a transaction in ctx.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// CopyModels bulk inserts models of one table using their db tags.
func CopyModels[T filter.Model](ctx context.Context, b *BatchInserter, items []T) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	columns := metadata.ExtractDBColumns[T]()
	rows := make([][]any, len(items))
	for i, item := range items {
		data := metadata.StructToMap(item)
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = data[col]
		}
		rows[i] = row
	}
	return b.CopyFromSlice(ctx, items[0].TableName(), columns, rows)
}

// BatchExecutor sends several statements in one round-trip.
type BatchExecutor struct {
	txManager *TxManager
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(txManager *TxManager) *BatchExecutor {
	return &BatchExecutor{txManager: txManager}
}

// BatchQuery represents a query in a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecuteBatch executes queries in order inside the transaction in ctx.
func (e *BatchExecutor) ExecuteBatch(ctx context.Context, queries []BatchQuery) error {
	t := e.txManager.GetTx(ctx)
	if t == nil {
		return fmt.Errorf("ExecuteBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := t.SendBatch(ctx, batch)
	defer results.Close()

	for i := range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query %d failed: %w", i, err)
		}
	}
	return nil
}
