package engine

import (
	"net/netip"
	"strings"

	"ufw-inspector/internal/model"
)

type PrecheckStatus string

const (
	StatusSkip     PrecheckStatus = "SKIP"
	StatusAllowAll PrecheckStatus = "ALLOW_ALL"
	StatusExpand   PrecheckStatus = "EXPAND"
)

// Packet is one flow to test against the rule set. A zero SrcPort is
// unknown and never matches a rule that restricts source ports.
type Packet struct {
	Src       netip.Addr
	Dst       netip.Addr
	SrcPort   uint16
	Port      uint16
	Protocol  model.Protocol
	Direction model.RuleDirection
	Interface string
}

// Decision is the outcome of evaluating a Packet. Matched is nil when the
// default policy decided.
type Decision struct {
	Verdict string
	Matched *model.RuleEntry
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.Verdict == "ALLOW"
}

// Evaluator walks numbered rules in order; the first match wins.
type Evaluator struct {
	Entries  []model.RuleEntry
	defaults map[model.DefaultDirection]model.DefaultPolicy
}

func NewEvaluator(entries []model.RuleEntry, defaults []model.Default) *Evaluator {
	e := &Evaluator{
		Entries:  entries,
		defaults: make(map[model.DefaultDirection]model.DefaultPolicy, len(defaults)),
	}
	for _, d := range defaults {
		e.defaults[d.Direction] = d.Policy
	}
	return e
}

func (e *Evaluator) Evaluate(p Packet) Decision {
	src, dst := p.Src.Unmap(), p.Dst.Unmap()
	for i := range e.Entries {
		entry := &e.Entries[i]
		if !e.matchesFlow(entry, p.Direction, p.Protocol, p.Interface, dst.Is6()) {
			continue
		}
		if !matchAddr(entry.Destination.Address, dst) || !matchAddr(entry.Source.Address, src) {
			continue
		}
		if !matchPorts(entry.Destination, p.Port, p.Protocol) {
			continue
		}
		if restrictsPorts(entry.Source) && (p.SrcPort == 0 || !matchPorts(entry.Source, p.SrcPort, p.Protocol)) {
			continue
		}
		verdict := verdictFor(entry.Action.Type)
		return Decision{Verdict: verdict, Matched: entry, Reason: "MATCH_RULE_" + entry.Action.Type.String()}
	}
	return e.fallback(p.Direction)
}

// Precheck decides a whole source/destination block at once. It returns
// StatusExpand when the first relevant rule covers the block only in part,
// so the caller has to evaluate individual packets.
func (e *Evaluator) Precheck(src, dst netip.Prefix, port uint16, proto model.Protocol, dir model.RuleDirection, iface string) (PrecheckStatus, *model.RuleEntry, string) {
	if !src.IsValid() || !dst.IsValid() {
		return StatusExpand, nil, "PRECHECK_INVALID_PREFIX"
	}
	src, dst = src.Masked(), dst.Masked()

	for i := range e.Entries {
		entry := &e.Entries[i]
		if !e.matchesFlow(entry, dir, proto, iface, dst.Addr().Is6()) {
			continue
		}
		if !matchPorts(entry.Destination, port, proto) || restrictsPorts(entry.Source) {
			continue
		}
		srcRel := prefixRelation(entry.Source.Address, src)
		if srcRel == relNone {
			continue
		}
		dstRel := prefixRelation(entry.Destination.Address, dst)
		if dstRel == relNone {
			continue
		}
		if srcRel != relFull || dstRel != relFull {
			return StatusExpand, entry, "PRECHECK_PARTIAL"
		}
		if verdictFor(entry.Action.Type) == "ALLOW" {
			return StatusAllowAll, entry, "PRECHECK_ALLOW_ALL"
		}
		return StatusSkip, entry, "PRECHECK_DENY"
	}

	if e.fallback(dir).Allowed() {
		return StatusAllowAll, nil, "PRECHECK_DEFAULT_ALLOW"
	}
	return StatusSkip, nil, "PRECHECK_DEFAULT_DENY"
}

func (e *Evaluator) matchesFlow(entry *model.RuleEntry, dir model.RuleDirection, proto model.Protocol, iface string, v6 bool) bool {
	if entry.Action.Direction != dir {
		return false
	}
	if (entry.IPVersion == model.V6) != v6 {
		return false
	}
	if entry.Protocol != model.ProtocolAny && entry.Protocol != proto {
		return false
	}
	return matchInterface(entry, iface)
}

func (e *Evaluator) fallback(dir model.RuleDirection) Decision {
	direction := model.Incoming
	switch dir {
	case model.RuleOut:
		direction = model.Outgoing
	case model.RuleFwd:
		direction = model.Routed
	}
	policy, ok := e.defaults[direction]
	if !ok {
		return Decision{Verdict: "DENY", Reason: "IMPLICIT_DENY"}
	}
	reason := strings.ToUpper("DEFAULT_" + direction.String() + "_" + policy.String())
	if policy == model.PolicyAllow {
		return Decision{Verdict: "ALLOW", Reason: reason}
	}
	return Decision{Verdict: "DENY", Reason: reason}
}

// LIMIT still lets the packet through; REJECT only differs from DENY on the wire.
func verdictFor(t model.RuleType) string {
	switch t {
	case model.RuleAllow, model.RuleLimit:
		return "ALLOW"
	default:
		return "DENY"
	}
}

func matchInterface(entry *model.RuleEntry, iface string) bool {
	for _, want := range []string{entry.Destination.Interface, entry.Source.Interface} {
		if want != "" && want != iface {
			return false
		}
	}
	return true
}

func matchAddr(prefix *netip.Prefix, ip netip.Addr) bool {
	if prefix == nil {
		return true
	}
	return prefix.Contains(ip)
}

func restrictsPorts(ep model.Endpoint) bool {
	return len(ep.Ports) > 0 || ep.Application != ""
}

// matchPorts checks explicit ports and, for application rules, the ports the
// profile resolved to. An application that did not resolve matches nothing.
func matchPorts(ep model.Endpoint, port uint16, proto model.Protocol) bool {
	if !restrictsPorts(ep) {
		return true
	}
	ports := ep.Ports
	if ep.Application != "" {
		ports = ep.AppPorts
	}
	for _, p := range ports {
		if p.Contains(port) && matchProtocol(p.Protocols, proto) {
			return true
		}
	}
	return false
}

func matchProtocol(protocols []model.Protocol, proto model.Protocol) bool {
	if len(protocols) == 0 {
		return true
	}
	for _, p := range protocols {
		if p == model.ProtocolAny || p == proto {
			return true
		}
	}
	return false
}

type prefixRel int

const (
	relNone prefixRel = iota
	relPartial
	relFull
)

// prefixRelation reports how much of block a rule prefix covers. A nil rule
// prefix is Anywhere and covers everything.
func prefixRelation(rule *netip.Prefix, block netip.Prefix) prefixRel {
	if rule == nil {
		return relFull
	}
	if rule.Addr().Is4() != block.Addr().Is4() {
		return relNone
	}
	if rule.Bits() <= block.Bits() && rule.Contains(block.Addr()) {
		return relFull
	}
	if block.Bits() < rule.Bits() && block.Contains(rule.Addr()) {
		return relPartial
	}
	return relNone
}
