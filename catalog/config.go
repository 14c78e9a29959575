package catalog

import (
	"time"

	"github.com/mrasu/egholdings/catalog/gateway"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/rs/zerolog"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL is the Evergreen server, e.g. https://gapines.org
	BaseURL string
	Timeout time.Duration
	// Classes are parsed from the IDL; idl.DefaultClasses when empty.
	Classes []idl.Class
}

type Option func(*Connection)

// WithTransport replaces the HTTP client built from Config.BaseURL.
func WithTransport(t gateway.Transport) Option {
	return func(c *Connection) {
		c.transport = t
	}
}

// WithSchema skips fetching the IDL document.
func WithSchema(s *idl.Schema) Option {
	return func(c *Connection) {
		c.schema = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Connection) {
		c.logger = l
	}
}
