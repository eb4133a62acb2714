package engine

import (
	"net/netip"
	"testing"

	"ufw-inspector/internal/model"
)

func testEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	tcp := []model.Protocol{model.TCP}
	entries := []model.RuleEntry{
		{
			Number:      1,
			Destination: model.Endpoint{Ports: []model.Port{{Number: 22, Protocols: tcp}}},
			Source:      model.Endpoint{Address: mustPrefix(t, "10.0.0.0/24")},
			Protocol:    model.TCP,
			Action:      model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
		},
		{
			Number: 2,
			Source: model.Endpoint{Address: mustPrefix(t, "172.16.0.0/16")},
			Action: model.RuleAction{Type: model.RuleDeny, Direction: model.RuleIn},
		},
		{
			Number: 3,
			Destination: model.Endpoint{
				Application: "OpenSSH",
				AppPorts:    []model.Port{{Number: 2222, Protocols: tcp}},
			},
			Action: model.RuleAction{Type: model.RuleLimit, Direction: model.RuleIn},
		},
		{
			Number: 4,
			Source: model.Endpoint{Address: mustPrefix(t, "172.16.0.0/12")},
			Action: model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
		},
		{
			Number:      5,
			Interface:   "eth1",
			Destination: model.Endpoint{Interface: "eth1", Ports: []model.Port{{Number: 8080, Protocols: []model.Protocol{model.ProtocolAny}}}},
			Action:      model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
		},
		{
			Number:      6,
			Destination: model.Endpoint{Application: "Unresolved"},
			Action:      model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
		},
	}
	defaults := []model.Default{
		{Direction: model.Incoming, Policy: model.PolicyDeny},
		{Direction: model.Outgoing, Policy: model.PolicyAllow},
	}
	return NewEvaluator(entries, defaults)
}

func TestEvaluatorFirstMatchAndDefaults(t *testing.T) {
	evaluator := testEvaluator(t)

	tests := []struct {
		name    string
		packet  Packet
		verdict string
		matched int
		reason  string
	}{
		{"allowed ssh from lan", packet("10.0.0.5", 22, model.TCP, model.RuleIn, ""), "ALLOW", 1, "MATCH_RULE_ALLOW"},
		{"lan on other port hits default", packet("10.0.0.5", 80, model.TCP, model.RuleIn, ""), "DENY", 0, "DEFAULT_INCOMING_DENY"},
		{"deny wins before broader allow", packet("172.16.1.1", 80, model.TCP, model.RuleIn, ""), "DENY", 2, "MATCH_RULE_DENY"},
		{"broader allow", packet("172.20.0.1", 80, model.TCP, model.RuleIn, ""), "ALLOW", 4, "MATCH_RULE_ALLOW"},
		{"limit counts as allow", packet("203.0.113.9", 2222, model.TCP, model.RuleIn, ""), "ALLOW", 3, "MATCH_RULE_LIMIT"},
		{"application protocol mismatch", packet("203.0.113.9", 2222, model.UDP, model.RuleIn, ""), "DENY", 0, "DEFAULT_INCOMING_DENY"},
		{"interface match", packet("203.0.113.9", 8080, model.TCP, model.RuleIn, "eth1"), "ALLOW", 5, "MATCH_RULE_ALLOW"},
		{"interface mismatch", packet("203.0.113.9", 8080, model.TCP, model.RuleIn, "eth0"), "DENY", 0, "DEFAULT_INCOMING_DENY"},
		{"outgoing default", packet("10.0.0.5", 443, model.TCP, model.RuleOut, ""), "ALLOW", 0, "DEFAULT_OUTGOING_ALLOW"},
		{"routed without default", packet("10.0.0.5", 443, model.TCP, model.RuleFwd, ""), "DENY", 0, "IMPLICIT_DENY"},
		{"v4 rules skip v6 packets", packet("2001:db8::1", 22, model.TCP, model.RuleIn, ""), "DENY", 0, "DEFAULT_INCOMING_DENY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := evaluator.Evaluate(tt.packet)
			if d.Verdict != tt.verdict || d.Reason != tt.reason {
				t.Fatalf("got %s (%s), want %s (%s)", d.Verdict, d.Reason, tt.verdict, tt.reason)
			}
			switch {
			case tt.matched == 0 && d.Matched != nil:
				t.Fatalf("expected default policy, matched rule %d", d.Matched.Number)
			case tt.matched != 0 && (d.Matched == nil || d.Matched.Number != tt.matched):
				t.Fatalf("expected rule %d, got %v", tt.matched, d.Matched)
			}
		})
	}
}

func TestEvaluatorSourcePortRestriction(t *testing.T) {
	evaluator := NewEvaluator([]model.RuleEntry{{
		Number: 1,
		Source: model.Endpoint{Ports: []model.Port{{Number: 53, Protocols: []model.Protocol{model.UDP}}}},
		Action: model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
	}}, []model.Default{{Direction: model.Incoming, Policy: model.PolicyReject}})

	p := packet("192.0.2.1", 40000, model.UDP, model.RuleIn, "")
	if d := evaluator.Evaluate(p); d.Verdict != "DENY" || d.Reason != "DEFAULT_INCOMING_REJECT" {
		t.Fatalf("unknown source port should not match, got %s (%s)", d.Verdict, d.Reason)
	}
	p.SrcPort = 53
	if d := evaluator.Evaluate(p); !d.Allowed() {
		t.Fatalf("expected source port 53 to match, got %s", d.Reason)
	}
}

func TestEvaluatorPrecheck(t *testing.T) {
	evaluator := testEvaluator(t)

	tests := []struct {
		name     string
		src      string
		dst      string
		port     uint16
		dir      model.RuleDirection
		expected PrecheckStatus
		expRule  int
	}{
		{"partial coverage expands", "10.0.0.0/16", "192.168.1.1/32", 22, model.RuleIn, StatusExpand, 1},
		{"contained block allowed", "10.0.0.128/25", "192.168.1.1/32", 22, model.RuleIn, StatusAllowAll, 1},
		{"contained block denied", "172.16.5.0/24", "8.8.8.8/32", 80, model.RuleIn, StatusSkip, 2},
		{"misses deny, inside allow", "172.20.0.0/16", "8.8.8.8/32", 80, model.RuleIn, StatusAllowAll, 4},
		{"v6 falls to default", "2001:db8::/32", "2001:db8::1/128", 80, model.RuleIn, StatusSkip, 0},
		{"outgoing default allow", "10.0.0.0/8", "0.0.0.0/0", 443, model.RuleOut, StatusAllowAll, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, entry, _ := evaluator.Precheck(*mustPrefix(t, tt.src), *mustPrefix(t, tt.dst), tt.port, model.TCP, tt.dir, "")
			if status != tt.expected {
				t.Errorf("Precheck status mismatch: got %s, want %s", status, tt.expected)
			}
			if tt.expRule == 0 && entry != nil {
				t.Errorf("expected default policy, got rule %d", entry.Number)
			}
			if tt.expRule != 0 && (entry == nil || entry.Number != tt.expRule) {
				t.Errorf("matched rule mismatch: got %v, want %d", entry, tt.expRule)
			}
		})
	}
}

func TestPrecheckInvalidPrefix(t *testing.T) {
	status, _, reason := testEvaluator(t).Precheck(netip.Prefix{}, *mustPrefix(t, "10.0.0.1/32"), 22, model.TCP, model.RuleIn, "")
	if status != StatusExpand || reason != "PRECHECK_INVALID_PREFIX" {
		t.Fatalf("got %s (%s)", status, reason)
	}
}

func packet(src string, port uint16, proto model.Protocol, dir model.RuleDirection, iface string) Packet {
	dst := "192.168.1.1"
	if netip.MustParseAddr(src).Is6() {
		dst = "2001:db8::ffff"
	}
	return Packet{
		Src:       netip.MustParseAddr(src),
		Dst:       netip.MustParseAddr(dst),
		Port:      port,
		Protocol:  proto,
		Direction: dir,
		Interface: iface,
	}
}

func mustPrefix(t *testing.T, cidr string) *netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		t.Fatalf("failed to parse prefix %s: %v", cidr, err)
	}
	return &p
}
