package parser

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/utils"
)

// MaxCIDR is the largest prefix length accepted, for IPv6 addresses too.
const MaxCIDR = 32

// ParsePort parses a decimal port number between 0 and 65535.
func ParsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", model.ErrPortNotANumber, err.Error())
	}
	return uint16(n), nil
}

// ParseCIDR parses a prefix length between 0 and MaxCIDR.
func ParseCIDR(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", model.ErrInvalidCIDR, err.Error())
	}
	if n > MaxCIDR {
		return 0, fmt.Errorf("%w: got %d", model.ErrInvalidCIDR, n)
	}
	return uint8(n), nil
}

// ParseProtocol accepts exactly "tcp" and "udp". The empty string means any.
func ParseProtocol(s string) (model.Protocol, error) {
	switch s {
	case "tcp":
		return model.TCP, nil
	case "udp":
		return model.UDP, nil
	case "":
		return model.ProtocolAny, nil
	}
	return 0, fmt.Errorf("%w: %q", model.ErrInvalidProtocol, s)
}

// ParseAddress parses an IPv4 or IPv6 address, with or without a prefix
// length. A bare address becomes a host prefix.
func ParseAddress(s string) (netip.Prefix, error) {
	if addr, bits, ok := strings.Cut(s, "/"); ok {
		ip, err := netip.ParseAddr(addr)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
		}
		cidr, err := ParseCIDR(bits)
		if err != nil {
			return netip.Prefix{}, err
		}
		return netip.PrefixFrom(ip, int(cidr)), nil
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
	}
	return utils.HostPrefix(ip), nil
}

// ParseModifier accepts the rule-line dispositions ALLOW and DENY.
func ParseModifier(s string) (model.Modifier, error) {
	switch s {
	case "ALLOW":
		return model.Allow, nil
	case "DENY":
		return model.Deny, nil
	}
	return 0, fmt.Errorf("%w: %q", model.ErrWrongRuleType, s)
}

// ParseDirection accepts IN and OUT; the empty string means both.
func ParseDirection(s string) (model.Direction, error) {
	switch s {
	case "IN":
		return model.DirectionIn, nil
	case "OUT":
		return model.DirectionOut, nil
	case "":
		return model.DirectionBoth, nil
	}
	return 0, fmt.Errorf("%w: %q", model.ErrWrongRuleDirection, s)
}

var loggingLevels = []model.LoggingLevel{
	model.LoggingLow,
	model.LoggingMedium,
	model.LoggingHigh,
	model.LoggingFull,
}

// ParseLoggingLevel parses the level name shown after "Logging: on".
func ParseLoggingLevel(s string) (model.LoggingLevel, error) {
	for _, l := range loggingLevels {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	names := make([]string, len(loggingLevels))
	for i, l := range loggingLevels {
		names[i] = l.String()
	}
	return 0, fmt.Errorf("%w: %q, expected one of %s", model.ErrInvalidLoggingLevel, s, strings.Join(names, ", "))
}
