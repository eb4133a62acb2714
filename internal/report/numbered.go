package report

import (
	"bufio"
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
	"ufw-inspector/internal/utils"
)

// DefaultDirection applies to numbered lines that print only the rule type.
const DefaultDirection = model.RuleIn

var (
	numberedRe  = regexp.MustCompile(`^\[\s*(\d+)\]\s*(.*)$`)
	portTokenRe = regexp.MustCompile(`^\d+(?::\d+)?(?:,\d+(?::\d+)?)*(?:/\w+)?$`)
)

var reportProtocols = map[string]model.Protocol{
	"tcp":  model.TCP,
	"udp":  model.UDP,
	"ah":   model.AH,
	"esp":  model.ESP,
	"gre":  model.GRE,
	"ipv6": model.IPv6,
	"igmp": model.IGMP,
}

// ParseNumbered extracts one result per "[ N] ..." line of
// `ufw status numbered`, in order. Header and blank lines are skipped. When
// catalog is non-nil, application names are resolved to their ports.
func ParseNumbered(out model.CommandOutput, catalog *parser.Catalog) ([]model.Result[model.RuleEntry], error) {
	if err := checkExit(out); err != nil {
		return nil, err
	}

	var results []model.Result[model.RuleEntry]
	scanner := bufio.NewScanner(strings.NewReader(out.Stdout))
	for scanner.Scan() {
		m := numberedRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		entry, err := parseNumberedLine(m[1], m[2], catalog)
		if err != nil {
			results = append(results, model.Fail[model.RuleEntry](err))
			continue
		}
		results = append(results, model.Ok(entry))
	}
	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("%w: %s", model.ErrIO, err.Error())
	}
	return results, nil
}

func parseNumberedLine(number, rest string, catalog *parser.Catalog) (model.RuleEntry, error) {
	n, err := strconv.Atoi(number)
	if err != nil {
		return model.RuleEntry{}, fmt.Errorf("%w: %s", model.ErrInvalidIndex, err.Error())
	}
	entry := model.RuleEntry{Number: n, Protocol: model.ProtocolAny}

	rest, comment, hasComment := strings.Cut(rest, "#")
	if hasComment {
		entry.Comment = strings.TrimSpace(comment)
	}

	tokens := strings.Fields(rest)
	split := -1
	for i, tok := range tokens {
		if t, ok := model.ParseRuleType(tok); ok {
			entry.Action.Type = t
			split = i
			break
		}
	}
	if split < 0 {
		return model.RuleEntry{}, fmt.Errorf("%w: no rule type in %q", model.ErrWrongRuleType, strings.TrimSpace(rest))
	}

	sourceStart := split + 1
	entry.Action.Direction = DefaultDirection
	if sourceStart < len(tokens) {
		if d, ok := model.ParseRuleDirection(tokens[sourceStart]); ok {
			entry.Action.Direction = d
			sourceStart++
		}
	}

	dst, err := decodeRun(tokens[:split], &entry, catalog)
	if err != nil {
		return model.RuleEntry{}, fmt.Errorf("destination: %w", err)
	}
	src, err := decodeRun(tokens[sourceStart:], &entry, catalog)
	if err != nil {
		return model.RuleEntry{}, fmt.Errorf("source: %w", err)
	}
	entry.Destination, entry.Source = dst, src

	if entry.Interface == "" {
		entry.Interface = dst.Interface
	}
	if entry.Interface == "" {
		entry.Interface = src.Interface
	}
	return entry, nil
}

// decodeRun turns the tokens of one side into an Endpoint. Flags that belong
// to the whole entry (ip version, protocol) are set on entry.
func decodeRun(tokens []string, entry *model.RuleEntry, catalog *parser.Catalog) (model.Endpoint, error) {
	var ep model.Endpoint
	var appWords []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if base, proto, ok := cutProtocol(tok); ok {
			entry.Protocol = proto
			tok = base
		}
		switch {
		case tok == "on" && i+1 < len(tokens):
			ep.Interface = tokens[i+1]
			i++
		case tok == "(v6)":
			entry.IPVersion = model.V6
		case strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")"):
			// "(out)" and similar annotations carry nothing we keep.
		case tok == "Anywhere":
			ep.Address = nil
		case portTokenRe.MatchString(tok):
			ports, proto, err := decodePorts(tok)
			if err != nil {
				return model.Endpoint{}, err
			}
			ep.Ports = ports
			if proto != model.ProtocolAny {
				entry.Protocol = proto
			}
		case looksLikeAddress(tok):
			prefix, err := decodeAddress(tok)
			if err != nil {
				return model.Endpoint{}, err
			}
			if prefix.Addr().Is6() {
				entry.IPVersion = model.V6
			}
			ep.Address = &prefix
		default:
			appWords = append(appWords, tok)
		}
	}

	if len(appWords) > 0 {
		ep.Application = strings.Join(appWords, " ")
		if app, ok := catalog.Lookup(ep.Application); ok {
			ep.AppPorts = model.Values(app.Ports)
		}
	}
	return ep, nil
}

// decodePorts reads "22", "80,443/tcp" or "6000:6007/udp".
func decodePorts(tok string) ([]model.Port, model.Protocol, error) {
	items, suffix, hasSuffix := strings.Cut(tok, "/")
	proto := model.ProtocolAny
	if hasSuffix {
		p, ok := reportProtocols[suffix]
		if !ok {
			return nil, model.ProtocolAny, fmt.Errorf("%w: %q", model.ErrInvalidProtocol, suffix)
		}
		proto = p
	}

	var ports []model.Port
	for _, item := range strings.Split(items, ",") {
		port, err := parser.ParsePortItem(item)
		if err != nil {
			return nil, model.ProtocolAny, err
		}
		port.Protocols = []model.Protocol{proto}
		ports = append(ports, port)
	}
	return ports, proto, nil
}

// cutProtocol splits "Anywhere/udp" or "10.0.0.1/tcp" into the side and its
// protocol. Port tokens such as "22/tcp" are left to decodePorts.
func cutProtocol(tok string) (string, model.Protocol, bool) {
	i := strings.LastIndex(tok, "/")
	if i < 0 {
		return tok, model.ProtocolAny, false
	}
	proto, ok := reportProtocols[tok[i+1:]]
	if !ok {
		return tok, model.ProtocolAny, false
	}
	base := tok[:i]
	if base != "Anywhere" && !looksLikeAddress(base) {
		return tok, model.ProtocolAny, false
	}
	return base, proto, true
}

func looksLikeAddress(tok string) bool {
	return strings.ContainsAny(tok, ".:")
}

func decodeAddress(tok string) (netip.Prefix, error) {
	if strings.Contains(tok, "/") {
		p, err := netip.ParsePrefix(tok)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(tok)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
	}
	return utils.HostPrefix(addr), nil
}
