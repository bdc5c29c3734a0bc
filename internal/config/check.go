package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"servelive/internal/fsutil"
)

// Finalize normalizes derived values and validates the result. The root is
// resolved to an absolute directory without symlinks.
func (c *Config) Finalize() (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("invalid configuration: %w", err)
		}
	}()

	c.EventPath = strings.Trim(c.EventPath, "/")
	c.MetricsPath = strings.Trim(c.MetricsPath, "/")
	c.Watcher = strings.ToLower(c.Watcher)
	c.LogLevel = strings.ToLower(c.LogLevel)

	root, err := fsutil.CanonicalDir(c.Root)
	if err != nil {
		return fmt.Errorf("root %q: %w", c.Root, err)
	}
	c.Root = root

	return c.Validate()
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("listen_addr", validateListenAddr); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("failed on validation:\n%w", err)
	}
	return nil
}

// Port 0 is accepted so tests and scripts can ask for an ephemeral port.
func validateListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	parsed, err := strconv.Atoi(port)
	return err == nil && parsed >= 0 && parsed <= 65535
}
