package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	KindKeyExists       = "etcd.keyExists"
	KindKeyDoesNotExist = "etcd.keyDoesNotExist"
)

// KeyAssertion checks whether a key is present. With Value set, a present
// key must also hold that value.
type KeyAssertion struct {
	model.BaseAssertion
	Key    string
	Value  *string
	Exists bool
}

func (a *KeyAssertion) Kind() string {
	if a.Exists {
		return KindKeyExists
	}
	return KindKeyDoesNotExist
}

func (a *KeyAssertion) Description() string {
	if a.Exists {
		return fmt.Sprintf("Key %s exists", a.Key)
	}
	return fmt.Sprintf("Key %s does not exist", a.Key)
}

func (a *KeyAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	return withClient(ctx, instance, func(inst *Instance, client *clientv3.Client) (model.AssertionResponse, error) {
		resp, err := client.Get(ctx, inst.Key(a.Key))
		if err != nil {
			return model.AssertionResponse{}, fmt.Errorf("failed to read key %s: %w", a.Key, err)
		}
		var value []byte
		if len(resp.Kvs) > 0 {
			value = resp.Kvs[0].Value
		}
		return a.evaluate(len(resp.Kvs) > 0, value), nil
	})
}

func (a *KeyAssertion) evaluate(found bool, value []byte) model.AssertionResponse {
	response := backends.ExistenceResponse("Key", a.Key, found, a.Exists)
	if found && a.Exists && a.Value != nil && string(value) != *a.Value {
		return model.AssertionResponse{Message: fmt.Sprintf("Key %s has value %q, expected %q", a.Key, value, *a.Value)}
	}
	return response
}

func decodeKeyAssertion(exists bool) backends.AssertionDecoder {
	return func(base model.BaseAssertion, node backends.Node, env backends.DecodeEnv) (model.Assertion, error) {
		var params struct {
			Key   string  `yaml:"key" validate:"required"`
			Value *string `yaml:"value"`
		}
		if err := node.Decode(&params); err != nil {
			return nil, err
		}
		if err := validate.Struct(&params); err != nil {
			return nil, err
		}
		if !exists && params.Value != nil {
			return nil, fmt.Errorf("value is only meaningful for %s", KindKeyExists)
		}
		return &KeyAssertion{BaseAssertion: base, Key: params.Key, Value: params.Value, Exists: exists}, nil
	}
}
