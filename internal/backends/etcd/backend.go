package etcd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const defaultDialTimeout = 5 * time.Second

var validate = validator.New()

// Instance is a key space on an etcd cluster, rooted at Prefix
type Instance struct {
	Endpoints   []string `yaml:"endpoints" validate:"required,min=1,dive,required"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Prefix      string   `yaml:"prefix"`
	DialTimeout string   `yaml:"dialTimeout"`

	dialTimeout time.Duration
}

func (i *Instance) ResourceType() model.ResourceType { return model.ResourceTypeEtcd }

// DecodeInstance builds an Instance from an instance document
func DecodeInstance(node backends.Node) (model.Instance, error) {
	inst := &Instance{}
	if err := node.Decode(inst); err != nil {
		return nil, err
	}
	if err := validate.Struct(inst); err != nil {
		return nil, err
	}

	for i, ep := range inst.Endpoints {
		inst.Endpoints[i] = strings.TrimSpace(ep)
	}
	if inst.Prefix == "" {
		inst.Prefix = "/"
	}
	if !strings.HasSuffix(inst.Prefix, "/") {
		inst.Prefix += "/"
	}

	inst.dialTimeout = defaultDialTimeout
	if inst.DialTimeout != "" {
		timeout, err := time.ParseDuration(inst.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid dialTimeout %q: %w", inst.DialTimeout, err)
		}
		inst.dialTimeout = timeout
	}
	return inst, nil
}

func asInstance(instance model.Instance) (*Instance, error) {
	inst, ok := instance.(*Instance)
	if !ok {
		return nil, model.NewIncompatibleInstance(model.ResourceTypeEtcd, instance)
	}
	return inst, nil
}

// Key returns the absolute key for a key relative to the instance prefix
func (i *Instance) Key(key string) string {
	return i.Prefix + strings.TrimPrefix(key, "/")
}

// connect creates a client for the instance's cluster
func (i *Instance) connect(ctx context.Context) (*clientv3.Client, error) {
	timeout := i.dialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   i.Endpoints,
		Username:    i.Username,
		Password:    i.Password,
		DialTimeout: timeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// withClient runs fn with a client that is closed afterwards
func withClient[T any](ctx context.Context, instance model.Instance, fn func(inst *Instance, client *clientv3.Client) (T, error)) (T, error) {
	var zero T
	inst, err := asInstance(instance)
	if err != nil {
		return zero, err
	}
	client, err := inst.connect(ctx)
	if err != nil {
		return zero, err
	}
	defer func() { _ = client.Close() }()
	return fn(inst, client)
}
