package ruleline

import (
	"net/netip"

	"ufw-inspector/internal/model"
)

// Element is a node of the rule-line parse tree. Terminal elements carry
// the error their reduction produced, if any; the reducer reports the first
// one it meets.
type Element interface {
	isElement()
}

// IndexElement is the bracketed rule number.
type IndexElement struct {
	Number uint16
	Err    error
}

// AddressElement is an IPv4 or IPv6 address. A zero Addr stands for an
// omitted address and is resolved to 0.0.0.0 or :: by the reducer.
type AddressElement struct {
	Addr netip.Addr
	Err  error
}

// ProtocolElement is a protocol suffix written directly after an address.
type ProtocolElement struct {
	Protocol model.Protocol
	Err      error
}

// PortElement is a port written without a protocol.
type PortElement struct {
	Port uint16
	Err  error
}

// PortProtocolElement is "port/protocol".
type PortProtocolElement struct {
	Port     uint16
	Protocol model.Protocol
	Err      error
}

// CIDRElement is the prefix length after an address.
type CIDRElement struct {
	Bits uint8
	Err  error
}

// CIDRProtocolElement is "address/cidr/protocol" minus the address.
type CIDRProtocolElement struct {
	Bits     uint8
	Protocol model.Protocol
	Err      error
}

// ToFromElement groups the parts of one side of the rule.
type ToFromElement struct {
	Children []Element
}

// DeviceElement is "on <interface>".
type DeviceElement struct {
	Name string
}

// IPv6Element is the "(v6)" marker.
type IPv6Element struct{}

// ActionElement is the modifier with its optional direction.
type ActionElement struct {
	Modifier  model.Modifier
	Direction model.Direction
	Err       error
}

// EndElement marks the end of input.
type EndElement struct{}

func (IndexElement) isElement()        {}
func (AddressElement) isElement()      {}
func (ProtocolElement) isElement()     {}
func (PortElement) isElement()         {}
func (PortProtocolElement) isElement() {}
func (CIDRElement) isElement()         {}
func (CIDRProtocolElement) isElement() {}
func (ToFromElement) isElement()       {}
func (DeviceElement) isElement()       {}
func (IPv6Element) isElement()         {}
func (ActionElement) isElement()       {}
func (EndElement) isElement()          {}
