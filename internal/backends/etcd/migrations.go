package etcd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

// KindKV is the key-value transaction migration
const KindKV = "etcd.kv"

// Operation is one put or delete in a KV migration. Keys are relative to
// the instance prefix.
type Operation struct {
	Op     string `yaml:"op" validate:"required,oneof=put delete"`
	Key    string `yaml:"key" validate:"required"`
	Value  string `yaml:"value"`
	Prefix bool   `yaml:"prefix"`
}

// KVMigration applies its operations in a single transaction. When
// RequirePrefixEmpty is set the transaction only commits if no key exists
// under that prefix.
type KVMigration struct {
	model.BaseMigration
	Operations         []Operation
	RequirePrefixEmpty string
}

func (*KVMigration) Kind() string { return KindKV }

// ops builds the transaction operations for inst
func (m *KVMigration) ops(inst *Instance) []clientv3.Op {
	ops := make([]clientv3.Op, 0, len(m.Operations))
	for _, op := range m.Operations {
		key := inst.Key(op.Key)
		switch op.Op {
		case "put":
			ops = append(ops, clientv3.OpPut(key, op.Value))
		case "delete":
			if op.Prefix {
				ops = append(ops, clientv3.OpDelete(key, clientv3.WithPrefix()))
			} else {
				ops = append(ops, clientv3.OpDelete(key))
			}
		}
	}
	return ops
}

// Perform implements backends.MigrationPlugin for KV migrations
func Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	m, ok := migration.(*KVMigration)
	if !ok {
		return fmt.Errorf("unsupported etcd migration %T", migration)
	}

	_, err := withClient(ctx, instance, func(inst *Instance, client *clientv3.Client) (struct{}, error) {
		txn := client.Txn(ctx)
		if m.RequirePrefixEmpty != "" {
			guard := clientv3.Compare(clientv3.CreateRevision(inst.Key(m.RequirePrefixEmpty)), "=", 0).WithPrefix()
			txn = txn.If(guard)
		}

		log.Debugf("Applying %d operations under %s", len(m.Operations), inst.Prefix)
		resp, err := txn.Then(m.ops(inst)...).Commit()
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to commit transaction: %w", err)
		}
		if !resp.Succeeded {
			return struct{}{}, fmt.Errorf("prefix %s is not empty", inst.Key(m.RequirePrefixEmpty))
		}
		return struct{}{}, nil
	})
	return err
}

func decodeKV(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	var params struct {
		Operations         []Operation `yaml:"operations" validate:"required,min=1,dive"`
		RequirePrefixEmpty string      `yaml:"requirePrefixEmpty"`
	}
	if err := node.Decode(&params); err != nil {
		return nil, err
	}
	if err := validate.Struct(&params); err != nil {
		return nil, err
	}
	return &KVMigration{BaseMigration: base, Operations: params.Operations, RequirePrefixEmpty: params.RequirePrefixEmpty}, nil
}
