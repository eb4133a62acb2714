package parser

import (
	"fmt"
	"strconv"
	"strings"

	"ufw-inspector/internal/model"
)

// ProfileDefaultProtocols applies to a ports entry written without a
// "/protocol" suffix.
var ProfileDefaultProtocols = []model.Protocol{model.TCP, model.UDP}

// ParsePortSpec parses the ports value of an application profile:
//
//	field := entry ('|' entry)*
//	entry := items ('/' protocol)?
//	items := item (',' item)*
//	item  := NUMBER | NUMBER ':' NUMBER
//
// It returns one result per item in order. An empty field yields no results.
func ParsePortSpec(field string) []model.Result[model.Port] {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var results []model.Result[model.Port]
	for _, entry := range strings.Split(field, "|") {
		results = append(results, parsePortEntry(strings.TrimSpace(entry))...)
	}
	return results
}

func parsePortEntry(entry string) []model.Result[model.Port] {
	items, suffix, hasSuffix := entry, "", false
	if i := strings.LastIndex(entry, "/"); i >= 0 {
		items, suffix, hasSuffix = entry[:i], entry[i+1:], true
	}
	if strings.TrimSpace(items) == "" {
		return []model.Result[model.Port]{model.Fail[model.Port](model.ErrPortsSectionEmpty)}
	}

	protocols := ProfileDefaultProtocols
	var protoErr error
	if hasSuffix {
		p, err := ParseProtocol(strings.TrimSpace(suffix))
		if err != nil {
			protoErr = err
		} else {
			protocols = []model.Protocol{p}
		}
	}

	var results []model.Result[model.Port]
	for _, item := range strings.Split(items, ",") {
		if protoErr != nil {
			results = append(results, model.Fail[model.Port](protoErr))
			continue
		}
		port, err := ParsePortItem(strings.TrimSpace(item))
		if err != nil {
			results = append(results, model.Fail[model.Port](err))
			continue
		}
		port.Protocols = append([]model.Protocol(nil), protocols...)
		results = append(results, model.Ok(port))
	}
	return results
}

// ParsePortItem parses "NUMBER" or "NUMBER:NUMBER" without a protocol.
func ParsePortItem(item string) (model.Port, error) {
	start, end, isRange := strings.Cut(item, ":")
	if !isRange {
		n, err := parsePortNumber(item)
		if err != nil {
			return model.Port{}, fmt.Errorf("%w: %s", model.ErrPortNotANumber, err.Error())
		}
		return model.Port{Number: n}, nil
	}

	if start == "" {
		return model.Port{}, fmt.Errorf("%w: number before colon hasn't been specified", model.ErrInvalidPortRange)
	}
	if end == "" {
		return model.Port{}, fmt.Errorf("%w: number after colon hasn't been specified", model.ErrInvalidPortRange)
	}
	first, err := parsePortNumber(start)
	if err != nil {
		return model.Port{}, fmt.Errorf("%w: cannot parse first number in range: %s", model.ErrPortNotANumber, err.Error())
	}
	second, err := parsePortNumber(end)
	if err != nil {
		return model.Port{}, fmt.Errorf("%w: cannot parse second number in range: %s", model.ErrPortNotANumber, err.Error())
	}
	return model.Port{Number: first, EndNumber: &second}, nil
}

func parsePortNumber(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	return uint16(n), err
}
