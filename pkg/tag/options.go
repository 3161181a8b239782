package tag

import (
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

// MaxElements bounds the element count of a single block.
const MaxElements = 1 << 20

type config struct {
	registry *tagdef.Registry
	version  cache.Version
	order    binary.ByteOrder
	logger   *slog.Logger
}

// Option configures a Serializer or Deserializer.
type Option func(*config)

// WithByteOrder overrides the byte order implied by the version.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		c.order = order
	}
}

// WithLogger sets the logger for walk records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(reg *tagdef.Registry, v cache.Version, opts []Option) config {
	c := config{
		registry: reg,
		version:  v,
		order:    v.ByteOrder(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *config) header() header {
	return header{order: c.order, gen2: c.version.Generation() == cache.Gen2}
}

func (c *config) describe(path, typ string) (*tagdef.Layout, error) {
	layout, err := c.registry.Describe(typ, c.version)
	if err != nil {
		return nil, fieldError(path, err)
	}
	return layout, nil
}
