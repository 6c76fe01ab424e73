package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	bits  uint64
	label string
}

func withBits(b uint64) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if b > 0xff {
			return errors.New("bits out of range")
		}
		c.bits |= b

		return nil
	})
}

func withLabel(s string) Option[*testConfig] {
	return NoError(func(c *testConfig) { c.label = s })
}

func TestApply_InOrder(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withBits(0x01), withBits(0x02), withLabel("x"))

	require.NoError(t, err)
	require.Equal(t, uint64(0x03), cfg.bits)
	require.Equal(t, "x", cfg.label)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withBits(0x01), withBits(0x100), withLabel("never"))

	require.Error(t, err)
	require.Equal(t, uint64(0x01), cfg.bits)
	require.Equal(t, "", cfg.label)
}

func TestApply_Empty(t *testing.T) {
	cfg := &testConfig{}

	require.NoError(t, Apply(cfg))
	require.Equal(t, uint64(0), cfg.bits)
}
