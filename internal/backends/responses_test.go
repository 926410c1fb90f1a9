package backends

import "testing"

func TestRowResponses(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		exists      bool
		existsMsg   string
		notExists   bool
		notExistMsg string
	}{
		{name: "no rows", count: 0, existsMsg: "Expected to find exactly one row, but found 0", notExists: true, notExistMsg: "Row does not exist, as expected"},
		{name: "one row", count: 1, exists: true, existsMsg: "Exactly one row exists, as expected", notExistMsg: "Expected to find no rows but found 1"},
		{name: "many rows", count: 3, existsMsg: "Expected to find exactly one row, but found 3", notExistMsg: "Expected to find no rows but found 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RowExistsResponse(tt.count)
			if got.Result != tt.exists || got.Message != tt.existsMsg {
				t.Errorf("RowExistsResponse(%d) = %+v", tt.count, got)
			}
			got = RowDoesNotExistResponse(tt.count)
			if got.Result != tt.notExists || got.Message != tt.notExistMsg {
				t.Errorf("RowDoesNotExistResponse(%d) = %+v", tt.count, got)
			}
		})
	}
}

func TestExistenceResponse(t *testing.T) {
	tests := []struct {
		exists, want bool
		result       bool
		message      string
	}{
		{exists: true, want: true, result: true, message: "Schema prd exists"},
		{exists: true, want: false, result: false, message: "Schema prd exists"},
		{exists: false, want: false, result: true, message: "Schema prd does not exist"},
		{exists: false, want: true, result: false, message: "Schema prd does not exist"},
	}
	for _, tt := range tests {
		got := ExistenceResponse("Schema", "prd", tt.exists, tt.want)
		if got.Result != tt.result || got.Message != tt.message {
			t.Errorf("ExistenceResponse(%v, %v) = %+v", tt.exists, tt.want, got)
		}
	}

	if got := DatabaseMissingResponse("app"); got.Result || got.Message != "Database app does not exist" {
		t.Errorf("DatabaseMissingResponse() = %+v", got)
	}
}
