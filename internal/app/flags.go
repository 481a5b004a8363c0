package app

import (
	"github.com/andyballingall/portpub/internal/port"
)

// checksumValue implements pflag.Value to validate a SHA512 given on the command line.
type checksumValue port.Checksum

func (c *checksumValue) String() string {
	return string(*c)
}

func (c *checksumValue) Set(v string) error {
	sum, err := port.ParseChecksum(v)
	if err != nil {
		return err
	}
	*c = checksumValue(sum)
	return nil
}

func (c *checksumValue) Type() string {
	return "<sha512>"
}

// pathValue implements pflag.Value to provide a custom type name in help text.
type pathValue string

func (p *pathValue) String() string {
	return string(*p)
}

func (p *pathValue) Set(v string) error {
	*p = pathValue(v)
	return nil
}

func (p *pathValue) Type() string {
	return "<path>"
}
