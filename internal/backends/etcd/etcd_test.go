package etcd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
)

type otherInstance struct{}

func (otherInstance) ResourceType() model.ResourceType { return model.ResourceTypePostgreSQL }

func node(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &n); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	return n.Content[0]
}

func TestDecodeInstance(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantPrefix  string
		wantTimeout time.Duration
		wantErr     bool
	}{
		{name: "defaults", doc: "endpoints: [localhost:2379]\n", wantPrefix: "/", wantTimeout: 5 * time.Second},
		{name: "prefix gets trailing slash", doc: "endpoints: [a:2379]\nprefix: /apps/billing\ndialTimeout: 2s\n", wantPrefix: "/apps/billing/", wantTimeout: 2 * time.Second},
		{name: "no endpoints", doc: "prefix: /x\n", wantErr: true},
		{name: "bad timeout", doc: "endpoints: [a:2379]\ndialTimeout: soon\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInstance(node(t, tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeInstance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			inst := got.(*Instance)
			if inst.Prefix != tt.wantPrefix || inst.dialTimeout != tt.wantTimeout {
				t.Errorf("DecodeInstance() = prefix %q timeout %v", inst.Prefix, inst.dialTimeout)
			}
		})
	}
}

func TestInstance_Key(t *testing.T) {
	inst := &Instance{Prefix: "/apps/"}
	id := uuid.MustParse("1f0e5c2a-8d3b-4a7e-9c61-2b4d6f8a0c11")

	if got := inst.Key("/config/mode"); got != "/apps/config/mode" {
		t.Errorf("Key() = %q", got)
	}
	if got := stateKey(inst, id); got != "/apps/wb/state/1f0e5c2a-8d3b-4a7e-9c61-2b4d6f8a0c11" {
		t.Errorf("stateKey() = %q", got)
	}
}

func TestDecodeMarker(t *testing.T) {
	resourceID := uuid.New()
	stateID := uuid.New()

	m, err := decodeMarker(resourceID, []byte(`{"stateId":"`+stateID.String()+`","lastMigrationInstant":"2024-05-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("decodeMarker() error = %v", err)
	}
	if m.ResourceID != resourceID || m.StateID != stateID || m.LastMigrationInstant.Year() != 2024 {
		t.Errorf("decodeMarker() = %+v", m)
	}

	if _, err := decodeMarker(resourceID, []byte("not json")); !errors.Is(err, model.ErrIndeterminateState) {
		t.Errorf("decodeMarker(garbage) error = %v, want indeterminate state", err)
	}
}

func TestKeyAssertion_Evaluate(t *testing.T) {
	want := "on"
	tests := []struct {
		name      string
		assertion *KeyAssertion
		found     bool
		value     string
		result    bool
		message   string
	}{
		{name: "exists", assertion: &KeyAssertion{Key: "mode", Exists: true}, found: true, result: true, message: "Key mode exists"},
		{name: "missing", assertion: &KeyAssertion{Key: "mode", Exists: true}, message: "Key mode does not exist"},
		{name: "value matches", assertion: &KeyAssertion{Key: "mode", Value: &want, Exists: true}, found: true, value: "on", result: true, message: "Key mode exists"},
		{name: "value differs", assertion: &KeyAssertion{Key: "mode", Value: &want, Exists: true}, found: true, value: "off", message: `Key mode has value "off", expected "on"`},
		{name: "absent as expected", assertion: &KeyAssertion{Key: "mode"}, result: true, message: "Key mode does not exist"},
		{name: "present unexpectedly", assertion: &KeyAssertion{Key: "mode"}, found: true, message: "Key mode exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.assertion.evaluate(tt.found, []byte(tt.value))
			if got.Result != tt.result || got.Message != tt.message {
				t.Errorf("evaluate() = %+v, want (%v, %q)", got, tt.result, tt.message)
			}
		})
	}
}

func TestDecodeKV(t *testing.T) {
	base := model.BaseMigration{ID: uuid.New()}
	doc := `
requirePrefixEmpty: config/
operations:
  - op: put
    key: config/mode
    value: "on"
  - op: delete
    key: legacy/
    prefix: true
`
	m, err := decodeKV(base, node(t, doc), backends.DecodeEnv{})
	if err != nil {
		t.Fatalf("decodeKV() error = %v", err)
	}
	kv := m.(*KVMigration)
	if kv.RequirePrefixEmpty != "config/" || len(kv.Operations) != 2 {
		t.Fatalf("decodeKV() = %+v", kv)
	}

	ops := kv.ops(&Instance{Prefix: "/apps/"})
	if len(ops) != 2 || !ops[0].IsPut() || !ops[1].IsDelete() {
		t.Fatalf("ops() = %v", ops)
	}
	if string(ops[0].KeyBytes()) != "/apps/config/mode" || string(ops[0].ValueBytes()) != "on" {
		t.Errorf("put op = %s=%s", ops[0].KeyBytes(), ops[0].ValueBytes())
	}
	if len(ops[1].RangeBytes()) == 0 {
		t.Error("prefix delete should carry a range end")
	}

	invalid := []string{
		"operations: []\n",
		"operations:\n  - op: rename\n    key: a\n",
		"operations:\n  - op: put\n",
	}
	for _, doc := range invalid {
		if _, err := decodeKV(base, node(t, doc), backends.DecodeEnv{}); err == nil {
			t.Errorf("decodeKV(%q) should fail", doc)
		}
	}
}

func TestDecodeKeyAssertion(t *testing.T) {
	base := model.BaseAssertion{ID: uuid.New()}
	a, err := decodeKeyAssertion(true)(base, node(t, "key: config/mode\nvalue: \"on\"\n"), backends.DecodeEnv{})
	if err != nil {
		t.Fatalf("decodeKeyAssertion() error = %v", err)
	}
	if key := a.(*KeyAssertion); key.Value == nil || *key.Value != "on" || key.Kind() != KindKeyExists {
		t.Errorf("decodeKeyAssertion() = %+v", key)
	}
	if _, err := decodeKeyAssertion(false)(base, node(t, "key: a\nvalue: b\n"), backends.DecodeEnv{}); err == nil {
		t.Error("decodeKeyAssertion() should reject a value on keyDoesNotExist")
	}
}

func TestIncompatibleInstance(t *testing.T) {
	ctx := context.Background()
	if _, err := (Store{}).Markers(ctx, otherInstance{}, uuid.New()); !errors.Is(err, model.ErrIncompatibleInstance) {
		t.Errorf("Markers() error = %v, want incompatible instance", err)
	}
	if err := Perform(ctx, logrus.New(), &KVMigration{}, otherInstance{}); !errors.Is(err, model.ErrIncompatibleInstance) {
		t.Errorf("Perform() error = %v, want incompatible instance", err)
	}
}

func TestRegister(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := reg.MigrationPluginFor(KindKV); err != nil {
		t.Errorf("MigrationPluginFor() error = %v", err)
	}
	if groups := reg.Groups(); len(groups) != 1 || groups[0].URI != Group.URI {
		t.Errorf("Groups() = %v", groups)
	}
}
