package backends

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/toolsascode/wildebeest/internal/model"
)

// RowExistsResponse reports whether a query returned exactly one row
func RowExistsResponse(count int) model.AssertionResponse {
	if count == 1 {
		return model.AssertionResponse{Result: true, Message: "Exactly one row exists, as expected"}
	}
	return model.AssertionResponse{Message: fmt.Sprintf("Expected to find exactly one row, but found %d", count)}
}

// RowDoesNotExistResponse reports whether a query returned no rows
func RowDoesNotExistResponse(count int) model.AssertionResponse {
	if count == 0 {
		return model.AssertionResponse{Result: true, Message: "Row does not exist, as expected"}
	}
	return model.AssertionResponse{Message: fmt.Sprintf("Expected to find no rows but found %d", count)}
}

// ExistenceResponse reports an object's presence, e.g. "Table items exists",
// passing when the presence matches want.
func ExistenceResponse(object, name string, exists, want bool) model.AssertionResponse {
	message := fmt.Sprintf("%s %s does not exist", object, name)
	if exists {
		message = fmt.Sprintf("%s %s exists", object, name)
	}
	return model.AssertionResponse{Result: exists == want, Message: message}
}

// DatabaseMissingResponse fails an assertion whose database is absent
func DatabaseMissingResponse(name string) model.AssertionResponse {
	return model.AssertionResponse{Message: fmt.Sprintf("Database %s does not exist", name)}
}

// RowQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type RowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CountRows runs query and counts the rows it returns
func CountRows(ctx context.Context, q RowQuerier, query string) (int, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to run assertion query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}
