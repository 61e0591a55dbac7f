package shardedapi

import (
	"database/sql"

	"github.com/shardkit/shardkit/apperrors"
	"github.com/shardkit/shardkit/mapper"
	"github.com/shardkit/shardkit/shardkey"
)

// decodeRows resolves m's column ordinals once against rows' schema, then
// decodes every row into a fresh T tagged with shardID (the shard this
// particular rows cursor came from).
func decodeRows[T any](rows *sql.Rows, m *mapper.Mapper, shardID shardkey.ID) ([]T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ordinals, err := m.ResolveOrdinals(columns)
	if err != nil {
		return nil, err
	}

	var out []T
	for rows.Next() {
		v, err := m.DecodeRow(rows, ordinals, len(columns), shardID)
		if err != nil {
			return nil, err
		}
		out = append(out, *(v.(*T)))
	}
	return out, rows.Err()
}

// decodeFirstRow is decodeRows stopped after one row, for MapReaderFirst's
// per-shard handler: a *T or nil if the shard's rows were empty.
func decodeFirstRow[T any](rows *sql.Rows, m *mapper.Mapper, shardID shardkey.ID) (*T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ordinals, err := m.ResolveOrdinals(columns)
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	v, err := m.DecodeRow(rows, ordinals, len(columns), shardID)
	if err != nil {
		return nil, err
	}
	if rows.Next() {
		return nil, apperrors.New(apperrors.KindUnexpectedMultiRow,
			"expected at most one row, got more than one")
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v.(*T), nil
}
