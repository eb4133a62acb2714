package ruleline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufw-inspector/internal/model"
)

func TestLexMarksWhitespace(t *testing.T) {
	tokens := Lex("[ 1] 10.0.0.0/8 22")
	require.Len(t, tokens, 8)
	assert.Equal(t, TokenLBracket, tokens[0].Type)
	assert.Equal(t, "1", tokens[1].Value)
	assert.True(t, tokens[1].SpaceBefore)
	assert.Equal(t, TokenRBracket, tokens[2].Type)
	assert.Equal(t, "10.0.0.0", tokens[3].Value)
	assert.Equal(t, TokenSlash, tokens[4].Type)
	assert.False(t, tokens[4].SpaceBefore)
	assert.Equal(t, "22", tokens[6].Value)
	assert.True(t, tokens[6].SpaceBefore)
	assert.Equal(t, TokenEOF, tokens[7].Type)
}

func TestParseFullRule(t *testing.T) {
	rule, err := Parse("[ 1] 192.168.1.0/24 22/udp on tun0 ALLOW IN 10.0.0.0/8")
	require.NoError(t, err)

	assert.Equal(t, uint16(1), rule.Index)
	assert.Equal(t, "192.168.1.0/24", rule.Destination.Prefix.String())
	require.NotNil(t, rule.Destination.Port)
	assert.Equal(t, uint16(22), *rule.Destination.Port)
	assert.Equal(t, model.UDP, rule.Destination.Protocol)
	assert.Equal(t, "tun0", rule.Interface)
	assert.Equal(t, model.Action{Modifier: model.Allow, Direction: model.DirectionIn}, rule.Action)
	assert.Equal(t, "10.0.0.0/8", rule.Source.Prefix.String())
	assert.Nil(t, rule.Source.Port)
	assert.False(t, rule.IPv6)
}

func TestParseDefaults(t *testing.T) {
	rule, err := Parse("[ 7] 10.0.0.1 443 DENY 172.16.0.1   ")
	require.NoError(t, err)

	assert.Equal(t, uint16(7), rule.Index)
	assert.Equal(t, "10.0.0.1/32", rule.Destination.Prefix.String())
	assert.Equal(t, model.ProtocolAny, rule.Destination.Protocol)
	assert.Equal(t, model.DirectionBoth, rule.Action.Direction)
	assert.Equal(t, model.Deny, rule.Action.Modifier)
	assert.Equal(t, "172.16.0.1/32", rule.Source.Prefix.String())
	assert.Empty(t, rule.Interface)
}

func TestParseOmittedAddressIsAnywhere(t *testing.T) {
	rule, err := Parse("[ 2] 22/tcp ALLOW IN Anywhere")
	require.NoError(t, err)

	assert.True(t, rule.Destination.IsAny())
	assert.Equal(t, "0.0.0.0/0", rule.Destination.Prefix.String())
	require.NotNil(t, rule.Destination.Port)
	assert.Equal(t, uint16(22), *rule.Destination.Port)
	assert.Equal(t, model.TCP, rule.Destination.Protocol)
	assert.True(t, rule.Source.IsAny())
}

func TestParseIPv6Marker(t *testing.T) {
	rule, err := Parse("[ 3] 22/tcp (v6) ALLOW IN Anywhere (v6)")
	require.NoError(t, err)

	assert.True(t, rule.IPv6)
	assert.Equal(t, "::/0", rule.Destination.Prefix.String())
	assert.Equal(t, "::/0", rule.Source.Prefix.String())

	rule, err = Parse("[ 4] 2001:db8::1 80/tcp ALLOW OUT")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1/128", rule.Destination.Prefix.String())
	assert.Equal(t, model.DirectionOut, rule.Action.Direction)
}

func TestParseDeviceSwitchesToSource(t *testing.T) {
	elements, err := ParseTree("[ 5] 10.0.0.1 on eth0 ALLOW IN 10.0.0.2 80")
	require.NoError(t, err)

	require.Len(t, elements, 6)
	assert.IsType(t, IndexElement{}, elements[0])
	assert.IsType(t, ToFromElement{}, elements[1])
	assert.Equal(t, DeviceElement{Name: "eth0"}, elements[2])
	assert.IsType(t, ActionElement{}, elements[3])
	assert.IsType(t, ToFromElement{}, elements[4])
	assert.Equal(t, EndElement{}, elements[5])

	rule, err := Reduce(elements)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1/32", rule.Destination.Prefix.String())
	assert.Nil(t, rule.Destination.Port)
	assert.Equal(t, "10.0.0.2/32", rule.Source.Prefix.String())
	require.NotNil(t, rule.Source.Port)
	assert.Equal(t, uint16(80), *rule.Source.Port)
}

func TestParseCIDRProtocolAndProtocolSuffix(t *testing.T) {
	rule, err := Parse("[ 6] 10.0.0.0/8/udp ALLOW IN 192.168.0.1/tcp")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/8", rule.Destination.Prefix.String())
	assert.Equal(t, model.UDP, rule.Destination.Protocol)
	assert.Equal(t, "192.168.0.1/32", rule.Source.Prefix.String())
	assert.Equal(t, model.TCP, rule.Source.Protocol)
}

func TestParseSlashPortWithoutAddress(t *testing.T) {
	rule, err := Parse("[ 1] /22/tcp ALLOW IN")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0/0", rule.Destination.Prefix.String())
	require.NotNil(t, rule.Destination.Port)
	assert.Equal(t, uint16(22), *rule.Destination.Port)
	assert.Equal(t, model.TCP, rule.Destination.Protocol)
	assert.True(t, rule.Source.IsAny())

	rule, err = Parse("[ 2] /22 DENY OUT /53/udp")
	require.NoError(t, err)
	require.NotNil(t, rule.Destination.Port)
	assert.Equal(t, uint16(22), *rule.Destination.Port)
	assert.Equal(t, model.ProtocolAny, rule.Destination.Protocol)
	require.NotNil(t, rule.Source.Port)
	assert.Equal(t, uint16(53), *rule.Source.Port)
	assert.Equal(t, model.UDP, rule.Source.Protocol)

	// After a written address the same shape is a prefix length.
	rule, err = Parse("[ 3] 10.0.0.0/22 ALLOW IN")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/22", rule.Destination.Prefix.String())
	assert.Nil(t, rule.Destination.Port)
}

func TestReduceWithoutIndexDefaultsToZero(t *testing.T) {
	rule, err := Reduce([]Element{
		ToFromElement{Children: []Element{AddressElement{}}},
		ActionElement{Modifier: model.Deny, Direction: model.DirectionIn},
		ToFromElement{Children: []Element{AddressElement{}}},
		EndElement{},
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(0), rule.Index)
	assert.Equal(t, model.Deny, rule.Action.Modifier)
}

func TestParseFieldErrorsFailTheLine(t *testing.T) {
	cases := map[string]error{
		"[ 1] 10.0.0.0/33 ALLOW IN Anywhere":   model.ErrInvalidCIDR,
		"[ 1] 2001:db8::/64 ALLOW IN Anywhere": model.ErrInvalidCIDR,
		"[ 1] 70000/tcp ALLOW IN Anywhere":     model.ErrPortNotANumber,
		"[ 1] 22/icmp ALLOW IN Anywhere":       model.ErrInvalidProtocol,
		"[ 1] 999.0.0.1 ALLOW IN Anywhere":     model.ErrInvalidAddress,
		"[ 1] 22/tcp REJECT IN Anywhere":       model.ErrWrongRuleType,
		"[ 1] 22/tcp ALLOW FWD Anywhere":       model.ErrWrongRuleDirection,
		"[99999] 22/tcp ALLOW IN Anywhere":     model.ErrInvalidIndex,
		"[ 1] 22/tcp ALLOW IN 10.0.0.0/8/sctp": model.ErrInvalidProtocol,
	}
	for line, want := range cases {
		_, err := Parse(line)
		assert.ErrorIs(t, err, want, line)
	}
}

func TestParseMalformedLinesAreSyntaxErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"1] 22/tcp ALLOW IN Anywhere",
		"[ x] 22/tcp ALLOW IN Anywhere",
		"[ 1] 22/tcp allow in Anywhere",
		"[ 1] 22/tcp ALLOW IN Anywhere extra",
		"[ 1] 10.0.0.0/8/TCP ALLOW",
	} {
		_, err := Parse(line)
		require.Error(t, err, line)
		assert.ErrorIs(t, err, model.ErrRuleSyntax, line)

		var syntaxErr *SyntaxError
		assert.True(t, errors.As(err, &syntaxErr), line)
	}
}
