package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// QueryParams narrows down the rows a query returns.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, for example
	// "Cache = ? AND Hit = 0".
	Where string

	// Args fill the placeholders in Where.
	Args []any

	// Limit caps the number of rows. 0 means no cap.
	Limit int

	// Offset skips rows. It only applies together with Limit.
	Offset int

	// OrderBy is a sort clause without the ORDER BY keywords, for example
	// "Seq".
	OrderBy string
}

// DataReader reads back what a DataRecorder stored.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table fill.
	// A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// Query returns pointers to the mapped struct, one per matching row
	// within the limit, and the number of rows that match overall.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the database.
	Close() error
}

type sqliteReader struct {
	*sql.DB

	entryTypes map[string]reflect.Type
}

// NewReader opens a recording for reading.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB reads from an already opened database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:         db,
		entryTypes: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.entryTypes[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.entryTypes[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	where := ""
	if params.Where != "" {
		where = " WHERE " + params.Where
	}

	var totalCount int

	err := r.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+where, params.Args...).
		Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM " + tableName + where

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	rows, err := r.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanEntries(rows, entryType)
	if err != nil {
		return nil, 0, err
	}

	return results, totalCount, nil
}

// scanEntries fills one struct per row, matching columns to fields by name.
// Columns without a field are dropped.
func scanEntries(rows *sql.Rows, entryType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fields := make(map[string]int, entryType.NumField())
	for i := 0; i < entryType.NumField(); i++ {
		fields[entryType.Field(i).Name] = i
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(entryType)
		targets := make([]any, len(columns))

		for i, column := range columns {
			fieldIdx, ok := fields[column]
			if !ok {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().Field(fieldIdx).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}
