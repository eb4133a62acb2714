package ruleline

import (
	"net/netip"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/utils"
)

const (
	// DefaultProtocol applies to a port written without "/protocol".
	DefaultProtocol = model.ProtocolAny
	// DefaultDirection applies to an action written without IN or OUT.
	DefaultDirection = model.DirectionBoth
)

// reduceState decides which side of the rule ToFrom fields are routed to.
type reduceState int

const (
	populatingDestination reduceState = iota
	populatingSource
)

type accumulator struct {
	addr     *netip.Addr
	port     *uint16
	cidr     *uint8
	protocol *model.Protocol
}

func (a *accumulator) absorb(children []Element) error {
	for _, child := range children {
		switch e := child.(type) {
		case AddressElement:
			if e.Err != nil {
				return e.Err
			}
			addr := e.Addr
			a.addr = &addr
		case CIDRElement:
			if e.Err != nil {
				return e.Err
			}
			bits := e.Bits
			a.cidr = &bits
		case CIDRProtocolElement:
			if e.Err != nil {
				return e.Err
			}
			bits, proto := e.Bits, e.Protocol
			a.cidr, a.protocol = &bits, &proto
		case ProtocolElement:
			if e.Err != nil {
				return e.Err
			}
			proto := e.Protocol
			a.protocol = &proto
		case PortElement:
			if e.Err != nil {
				return e.Err
			}
			port := e.Port
			a.port = &port
		case PortProtocolElement:
			if e.Err != nil {
				return e.Err
			}
			port, proto := e.Port, e.Protocol
			a.port, a.protocol = &port, &proto
		}
	}
	return nil
}

// address turns the accumulated fields into one side of the rule. An omitted
// address becomes the unspecified address of the rule's family and matches
// everything unless a prefix length was given; a written address without a
// prefix length matches only itself.
func (a *accumulator) address(v6 bool) model.Address {
	var prefix netip.Prefix
	switch {
	case (a.addr == nil || !a.addr.IsValid()) && a.cidr == nil:
		prefix = utils.AnyPrefix(v6)
	case a.addr == nil || !a.addr.IsValid():
		prefix = netip.PrefixFrom(utils.Unspecified(v6), int(*a.cidr))
	case a.cidr != nil:
		prefix = netip.PrefixFrom(*a.addr, int(*a.cidr))
	default:
		prefix = utils.HostPrefix(*a.addr)
	}

	protocol := DefaultProtocol
	if a.protocol != nil {
		protocol = *a.protocol
	}
	return model.Address{Prefix: prefix, Port: a.port, Protocol: protocol}
}

// Reduce folds the top-level elements produced by ParseTree into a rule.
// Address data goes to the destination until the first device, IPv6 marker
// or action, and to the source from then on. The first field error fails the
// whole rule. A tree without an index yields rule number 0.
func Reduce(elements []Element) (model.Rule, error) {
	var (
		rule  model.Rule
		state = populatingDestination
		dst   accumulator
		src   accumulator
	)
	rule.Action = model.Action{Modifier: model.Allow, Direction: DefaultDirection}

	for _, element := range elements {
		switch e := element.(type) {
		case IndexElement:
			if e.Err != nil {
				return model.Rule{}, e.Err
			}
			rule.Index = e.Number
		case ToFromElement:
			acc := &dst
			if state == populatingSource {
				acc = &src
			}
			if err := acc.absorb(e.Children); err != nil {
				return model.Rule{}, err
			}
		case DeviceElement:
			rule.Interface = e.Name
			state = populatingSource
		case IPv6Element:
			rule.IPv6 = true
			state = populatingSource
		case ActionElement:
			if e.Err != nil {
				return model.Rule{}, e.Err
			}
			rule.Action = model.Action{Modifier: e.Modifier, Direction: e.Direction}
			state = populatingSource
		case EndElement:
		}
	}

	rule.Destination = dst.address(rule.IPv6)
	rule.Source = src.address(rule.IPv6)
	return rule, nil
}

// Parse parses one rule line.
func Parse(line string) (model.Rule, error) {
	elements, err := ParseTree(line)
	if err != nil {
		return model.Rule{}, err
	}
	return Reduce(elements)
}
