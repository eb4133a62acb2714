package report

import (
	"fmt"
	"regexp"
	"strings"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
)

var (
	statusRe   = regexp.MustCompile(`(?m)^Status:[ \t]*(\S+)`)
	loggingRe  = regexp.MustCompile(`(?m)^Logging:[ \t]*(on|off)(?:[ \t]*\(([^)]*)\))?`)
	defaultsRe = regexp.MustCompile(`(?m)^Default:[ \t]*(.*?)[ \t]*$`)
	clauseRe   = regexp.MustCompile(`^(\w+) \((\w+)\)$`)
)

// Verbose bundles what `ufw status verbose` reports. Each part fails on its own.
type Verbose struct {
	Enabled  model.Result[bool]
	Logging  model.Result[model.LoggingLevel]
	Defaults model.Result[[]model.Result[model.Default]]
}

// ParseVerbose runs the status, logging and defaults extractors over one
// `ufw status verbose` invocation.
func ParseVerbose(out model.CommandOutput) (Verbose, error) {
	if err := checkExit(out); err != nil {
		return Verbose{}, err
	}
	var v Verbose
	if enabled, err := ParseStatus(out); err != nil {
		v.Enabled = model.Fail[bool](err)
	} else {
		v.Enabled = model.Ok(enabled)
	}
	if level, err := ParseLogging(out); err != nil {
		v.Logging = model.Fail[model.LoggingLevel](err)
	} else {
		v.Logging = model.Ok(level)
	}
	if defaults, err := ParseDefaults(out); err != nil {
		v.Defaults = model.Fail[[]model.Result[model.Default]](err)
	} else {
		v.Defaults = model.Ok(defaults)
	}
	return v, nil
}

// ParseStatus reports whether the "Status:" line says active.
func ParseStatus(out model.CommandOutput) (bool, error) {
	if err := checkExit(out); err != nil {
		return false, err
	}
	m := statusRe.FindStringSubmatch(out.Stdout)
	if m == nil {
		return false, fmt.Errorf("%w: no Status line", model.ErrInvalidStatus)
	}
	switch m[1] {
	case "active":
		return true, nil
	case "inactive":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", model.ErrInvalidStatus, m[1])
}

// ParseLogging reads the "Logging:" line. "on" must name a level.
func ParseLogging(out model.CommandOutput) (model.LoggingLevel, error) {
	if err := checkExit(out); err != nil {
		return model.LoggingOff, err
	}
	m := loggingRe.FindStringSubmatch(out.Stdout)
	if m == nil {
		return model.LoggingOff, fmt.Errorf("%w: no Logging line", model.ErrInvalidLoggingLevel)
	}
	if m[1] == "off" {
		return model.LoggingOff, nil
	}
	return parser.ParseLoggingLevel(strings.TrimSpace(m[2]))
}

// ParseDefaults splits the "Default:" line into clauses such as
// "deny (incoming)". A clause that does not match fails alone.
func ParseDefaults(out model.CommandOutput) ([]model.Result[model.Default], error) {
	if err := checkExit(out); err != nil {
		return nil, err
	}
	m := defaultsRe.FindStringSubmatch(out.Stdout)
	if m == nil {
		return nil, fmt.Errorf("%w: no Default line", model.ErrInvalidDefaults)
	}

	var results []model.Result[model.Default]
	for _, clause := range strings.Split(m[1], ", ") {
		d, err := parseDefaultClause(clause)
		if err != nil {
			results = append(results, model.Fail[model.Default](err))
			continue
		}
		results = append(results, model.Ok(d))
	}
	return results, nil
}

func parseDefaultClause(clause string) (model.Default, error) {
	m := clauseRe.FindStringSubmatch(strings.TrimSpace(clause))
	if m == nil {
		return model.Default{}, fmt.Errorf("%w: %q", model.ErrInvalidDefaults, clause)
	}

	var d model.Default
	switch m[1] {
	case "allow":
		d.Policy = model.PolicyAllow
	case "deny":
		d.Policy = model.PolicyDeny
	case "reject":
		d.Policy = model.PolicyReject
	case "disabled":
		d.Policy = model.PolicyDisabled
	default:
		return model.Default{}, fmt.Errorf("%w: %q", model.ErrWrongRuleType, m[1])
	}
	switch m[2] {
	case "incoming":
		d.Direction = model.Incoming
	case "outgoing":
		d.Direction = model.Outgoing
	case "routed":
		d.Direction = model.Routed
	default:
		return model.Default{}, fmt.Errorf("%w: %q", model.ErrWrongRuleDirection, m[2])
	}
	return d, nil
}
