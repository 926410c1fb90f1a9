package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type testMigration struct {
	BaseMigration
}

func (testMigration) Kind() string { return "test" }

type testAssertion struct {
	BaseAssertion
}

func (testAssertion) Kind() string        { return "test" }
func (testAssertion) Description() string { return "test assertion" }
func (testAssertion) Perform(ctx context.Context, instance Instance) (AssertionResponse, error) {
	return AssertionResponse{Result: true}, nil
}

func newTestResource() *Resource {
	return &Resource{
		ID:   uuid.New(),
		Type: ResourceTypeSQLite,
		Name: "test",
		States: []State{
			{ID: uuid.New(), Label: "Created"},
			{ID: uuid.New(), Label: "SchemaLoaded"},
			{ID: uuid.New()},
		},
	}
}

func TestResource_StateForID_RoundTrip(t *testing.T) {
	r := newTestResource()

	for i := range r.States {
		got := r.StateForID(r.States[i].ID)
		if got != &r.States[i] {
			t.Errorf("StateForID(%s) = %p, want %p", r.States[i].ID, got, &r.States[i])
		}
	}

	if got := r.StateForID(uuid.New()); got != nil {
		t.Errorf("StateForID(unknown) = %v, want nil", got)
	}
	if got := r.StateForID(uuid.Nil); got != nil {
		t.Errorf("StateForID(Nil) = %v, want nil", got)
	}
}

func TestResource_StateIDForLabel(t *testing.T) {
	r := newTestResource()

	id, ok := r.StateIDForLabel("SchemaLoaded")
	if !ok || id != r.States[1].ID {
		t.Errorf("StateIDForLabel(SchemaLoaded) = %s, %v", id, ok)
	}

	if _, ok := r.StateIDForLabel("Missing"); ok {
		t.Error("StateIDForLabel(Missing) should not resolve")
	}
}

func TestResource_StateIDForLabel_FirstMatch(t *testing.T) {
	r := newTestResource()
	r.States[2].Label = "Created"

	id, ok := r.StateIDForLabel("Created")
	if !ok || id != r.States[0].ID {
		t.Errorf("StateIDForLabel(Created) = %s, want first declared state %s", id, r.States[0].ID)
	}
}

func TestResource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Resource)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(r *Resource) {},
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(r *Resource) { r.ID = uuid.Nil },
			wantErr: true,
		},
		{
			name:    "missing type",
			mutate:  func(r *Resource) { r.Type = "" },
			wantErr: true,
		},
		{
			name:    "duplicate state id",
			mutate:  func(r *Resource) { r.States[1].ID = r.States[0].ID },
			wantErr: true,
		},
		{
			name:    "duplicate label",
			mutate:  func(r *Resource) { r.States[1].Label = "Created" },
			wantErr: true,
		},
		{
			name:    "nil state id",
			mutate:  func(r *Resource) { r.States[2].ID = uuid.Nil },
			wantErr: true,
		},
		{
			name: "duplicate assertion id",
			mutate: func(r *Resource) {
				id := uuid.New()
				r.States[0].Assertions = []Assertion{
					testAssertion{BaseAssertion{ID: id, Seq: 0}},
					testAssertion{BaseAssertion{ID: id, Seq: 1}},
				}
			},
			wantErr: true,
		},
		{
			name: "migration to undeclared state",
			mutate: func(r *Resource) {
				r.Migrations = []Migration{testMigration{BaseMigration{ID: uuid.New(), To: uuid.New()}}}
			},
			wantErr: true,
		},
		{
			name: "migration from undeclared state",
			mutate: func(r *Resource) {
				r.Migrations = []Migration{testMigration{BaseMigration{ID: uuid.New(), From: uuid.New(), To: r.States[0].ID}}}
			},
			wantErr: true,
		},
		{
			name: "duplicate migration id",
			mutate: func(r *Resource) {
				id := uuid.New()
				r.Migrations = []Migration{
					testMigration{BaseMigration{ID: id, To: r.States[0].ID}},
					testMigration{BaseMigration{ID: id, From: r.States[0].ID, To: r.States[1].ID}},
				}
			},
			wantErr: true,
		},
		{
			name: "destroying migration",
			mutate: func(r *Resource) {
				r.Migrations = []Migration{testMigration{BaseMigration{ID: uuid.New(), From: r.States[0].ID}}}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResource()
			tt.mutate(r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Validate() error kind = %s, want %s", KindOf(err), KindInvalidDefinition)
			}
		})
	}
}

func TestError_IsAndKindOf(t *testing.T) {
	stateID := uuid.New()
	results := []AssertionResult{{AssertionID: uuid.New(), Result: false, Message: "nope"}}
	err := fmt.Errorf("migrate: %w", NewAssertionFailed(stateID, results))

	if !errors.Is(err, ErrAssertionFailed) {
		t.Error("errors.Is(err, ErrAssertionFailed) = false")
	}
	if errors.Is(err, ErrMigrationFailed) {
		t.Error("errors.Is(err, ErrMigrationFailed) = true")
	}
	if KindOf(err) != KindAssertionFailed {
		t.Errorf("KindOf() = %s", KindOf(err))
	}
	if got := AssertionResultsOf(err); len(got) != 1 || got[0].Message != "nope" {
		t.Errorf("AssertionResultsOf() = %v", got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf(plain error) should be empty")
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewMigrationFailed(uuid.New(), "script failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if err.Error() != "script failed: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &Error{Kind: KindTargetNotSpecified}
	if bare.Error() != string(KindTargetNotSpecified) {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestAllPassed(t *testing.T) {
	if !AllPassed(nil) {
		t.Error("AllPassed(nil) = false")
	}
	if AllPassed([]AssertionResult{{Result: true}, {Result: false}}) {
		t.Error("AllPassed() with a failure = true")
	}
}
