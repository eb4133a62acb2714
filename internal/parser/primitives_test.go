package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufw-inspector/internal/model"
)

func TestParsePortAcceptsFullRange(t *testing.T) {
	for _, n := range []int{0, 1, 22, 443, 8080, 65535} {
		got, err := ParsePort(fmt.Sprint(n))
		require.NoError(t, err)
		assert.Equal(t, uint16(n), got)
	}
}

func TestParsePortRejectsNonNumericAndOverflow(t *testing.T) {
	for _, s := range []string{"", "ssh", "-1", "65536", "70000", "22/tcp"} {
		_, err := ParsePort(s)
		assert.ErrorIs(t, err, model.ErrPortNotANumber, "input %q", s)
	}
}

func TestParseCIDR(t *testing.T) {
	got, err := ParseCIDR("24")
	require.NoError(t, err)
	assert.Equal(t, uint8(24), got)

	for _, s := range []string{"33", "64", "300", "x"} {
		_, err := ParseCIDR(s)
		assert.ErrorIs(t, err, model.ErrInvalidCIDR, "input %q", s)
	}
}

func TestParseProtocolIsCaseSensitive(t *testing.T) {
	p, err := ParseProtocol("tcp")
	require.NoError(t, err)
	assert.Equal(t, model.TCP, p)

	p, err = ParseProtocol("udp")
	require.NoError(t, err)
	assert.Equal(t, model.UDP, p)

	p, err = ParseProtocol("")
	require.NoError(t, err)
	assert.Equal(t, model.ProtocolAny, p)

	for _, s := range []string{"TCP", "icmp", "esp", " tcp"} {
		_, err := ParseProtocol(s)
		assert.ErrorIs(t, err, model.ErrInvalidProtocol, "input %q", s)
	}
}

func TestParseAddress(t *testing.T) {
	p, err := ParseAddress("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1/32", p.String())

	p, err = ParseAddress("192.168.1.0/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", p.String())

	p, err = ParseAddress("2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, 128, p.Bits())

	_, err = ParseAddress("10.0.0.0/40")
	assert.ErrorIs(t, err, model.ErrInvalidCIDR)

	_, err = ParseAddress("999.1.1.1")
	assert.ErrorIs(t, err, model.ErrInvalidAddress)
}

func TestParseModifierAndDirection(t *testing.T) {
	m, err := ParseModifier("DENY")
	require.NoError(t, err)
	assert.Equal(t, model.Deny, m)

	_, err = ParseModifier("REJECT")
	assert.ErrorIs(t, err, model.ErrWrongRuleType)

	d, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, model.DirectionBoth, d)

	d, err = ParseDirection("OUT")
	require.NoError(t, err)
	assert.Equal(t, model.DirectionOut, d)

	_, err = ParseDirection("FWD")
	assert.ErrorIs(t, err, model.ErrWrongRuleDirection)
}

func TestParseLoggingLevel(t *testing.T) {
	l, err := ParseLoggingLevel("medium")
	require.NoError(t, err)
	assert.Equal(t, model.LoggingMedium, l)

	_, err = ParseLoggingLevel("bogus")
	require.ErrorIs(t, err, model.ErrInvalidLoggingLevel)
	assert.Contains(t, err.Error(), "low, medium, high, full")
}
