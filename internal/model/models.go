package model

import (
	"fmt"
	"net/netip"
	"strings"
)

type Protocol int

const (
	ProtocolAny Protocol = iota
	TCP
	UDP
	AH
	ESP
	GRE
	IPv6
	IGMP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case AH:
		return "ah"
	case ESP:
		return "esp"
	case GRE:
		return "gre"
	case IPv6:
		return "ipv6"
	case IGMP:
		return "igmp"
	default:
		return "any"
	}
}

// Port is a single port or an inclusive range. EndNumber is nil for a single
// port. Start <= End is not checked.
type Port struct {
	Number    uint16
	EndNumber *uint16
	Protocols []Protocol
}

func (p Port) IsRange() bool {
	return p.EndNumber != nil
}

// Contains reports whether n falls inside the port or range.
func (p Port) Contains(n uint16) bool {
	if p.EndNumber == nil {
		return p.Number == n
	}
	return n >= p.Number && n <= *p.EndNumber
}

// ApplicationEntry is one [section] of an application profile document.
type ApplicationEntry struct {
	Name        string
	Title       string
	Description string
	Ports       []Result[Port]
}

// ApplicationProfile is one profile document, identified by where it was read from.
type ApplicationProfile struct {
	Source  string
	Entries []Result[ApplicationEntry]
}

type Modifier int

const (
	Allow Modifier = iota
	Deny
)

func (m Modifier) String() string {
	if m == Deny {
		return "DENY"
	}
	return "ALLOW"
}

type Direction int

const (
	DirectionBoth Direction = iota
	DirectionIn
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "BOTH"
	}
}

type Action struct {
	Modifier  Modifier
	Direction Direction
}

// Address is one side of a parsed rule line. Prefix always carries an
// address; an unspecified address with zero bits means "anywhere".
type Address struct {
	Prefix   netip.Prefix
	Port     *uint16
	Protocol Protocol
}

func (a Address) IsAny() bool {
	return a.Prefix.Bits() == 0 && a.Prefix.Addr().IsUnspecified()
}

// Rule is the typed form of one rule line.
type Rule struct {
	Index       uint16
	IPv6        bool
	Destination Address
	Source      Address
	Interface   string
	Action      Action
}

type RuleType int

const (
	RuleAllow RuleType = iota
	RuleDeny
	RuleReject
	RuleLimit
)

func (t RuleType) String() string {
	switch t {
	case RuleDeny:
		return "DENY"
	case RuleReject:
		return "REJECT"
	case RuleLimit:
		return "LIMIT"
	default:
		return "ALLOW"
	}
}

// ParseRuleType matches ALLOW, DENY, REJECT and LIMIT in any case.
func ParseRuleType(s string) (RuleType, bool) {
	switch strings.ToUpper(s) {
	case "ALLOW":
		return RuleAllow, true
	case "DENY":
		return RuleDeny, true
	case "REJECT":
		return RuleReject, true
	case "LIMIT":
		return RuleLimit, true
	}
	return 0, false
}

type RuleDirection int

const (
	RuleIn RuleDirection = iota
	RuleOut
	RuleFwd
)

func (d RuleDirection) String() string {
	switch d {
	case RuleOut:
		return "OUT"
	case RuleFwd:
		return "FWD"
	default:
		return "IN"
	}
}

// ParseRuleDirection matches IN, OUT and FWD in any case.
func ParseRuleDirection(s string) (RuleDirection, bool) {
	switch strings.ToUpper(s) {
	case "IN":
		return RuleIn, true
	case "OUT":
		return RuleOut, true
	case "FWD":
		return RuleFwd, true
	}
	return 0, false
}

type RuleAction struct {
	Type      RuleType
	Direction RuleDirection
}

type IPVersion int

const (
	V4 IPVersion = iota
	V6
)

func (v IPVersion) String() string {
	if v == V6 {
		return "v6"
	}
	return "v4"
}

// Endpoint is one side of a numbered report line. A nil Address means
// Anywhere; no Ports means any port.
type Endpoint struct {
	Address     *netip.Prefix
	Ports       []Port
	Interface   string
	Application string
	AppPorts    []Port
}

// RuleEntry is one line of `ufw status numbered`.
type RuleEntry struct {
	Number      int
	Interface   string
	Destination Endpoint
	Source      Endpoint
	Protocol    Protocol
	IPVersion   IPVersion
	Action      RuleAction
	Comment     string
}

type LoggingLevel int

const (
	LoggingOff LoggingLevel = iota
	LoggingLow
	LoggingMedium
	LoggingHigh
	LoggingFull
)

func (l LoggingLevel) String() string {
	switch l {
	case LoggingLow:
		return "low"
	case LoggingMedium:
		return "medium"
	case LoggingHigh:
		return "high"
	case LoggingFull:
		return "full"
	default:
		return "off"
	}
}

// DefaultDirection is the traffic class a default policy applies to.
type DefaultDirection int

const (
	Incoming DefaultDirection = iota
	Outgoing
	Routed
)

func (d DefaultDirection) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Routed:
		return "routed"
	default:
		return "incoming"
	}
}

type DefaultPolicy int

const (
	PolicyAllow DefaultPolicy = iota
	PolicyDeny
	PolicyReject
	PolicyDisabled
)

func (p DefaultPolicy) String() string {
	switch p {
	case PolicyDeny:
		return "deny"
	case PolicyReject:
		return "reject"
	case PolicyDisabled:
		return "disabled"
	default:
		return "allow"
	}
}

type Default struct {
	Direction DefaultDirection
	Policy    DefaultPolicy
}

// Version is the tool name and version reported by `ufw version`.
type Version struct {
	Tool  string
	Major int
	Minor int
	Patch *int
}

func (v Version) String() string {
	s := fmt.Sprintf("%s %d.%d", v.Tool, v.Major, v.Minor)
	if v.Patch != nil {
		s += fmt.Sprintf(".%d", *v.Patch)
	}
	return s
}

// CommandOutput is what one invocation of the firewall tool produced.
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func (o CommandOutput) Success() bool {
	return o.ExitCode == 0
}
