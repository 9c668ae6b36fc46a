package vault

import (
	"path"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/sanLimbu/todo-app/internal"
)

// Provider ...
type Provider struct {
	path     string
	logical  *api.Logical
	disabled bool
}

// New instantiates the Vault client, when address is empty the returned Provider fails every lookup.
func New(token, addr, path string) (*Provider, error) {
	if addr == "" {
		return &Provider{disabled: true}, nil
	}

	config := &api.Config{
		Address: addr,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return &Provider{
		path:    path,
		logical: client.Logical(),
	}, nil
}

// Get retrieves the value for the key `<path>:<field>` located in the KV v2 engine.
func (p *Provider) Get(v string) (string, error) {
	if p.disabled {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "vault is not configured")
	}

	split := strings.Split(v, ":")
	if len(split) != 2 {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "invalid key %q, expected <path>:<field>", v)
	}

	p2, key := split[0], split[1]

	res, err := p.logical.Read(path.Join("secret", "data", p.path, p2))
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "logical.Read")
	}

	if res == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret not found")
	}

	data, ok := res.Data["data"].(map[string]interface{})
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeUnknown, "invalid secret data")
	}

	val, ok := data[key].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "field not found")
	}

	return val, nil
}
