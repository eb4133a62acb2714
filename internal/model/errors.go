package model

import "errors"

// Parse failures. Variants that carry data wrap these with fmt.Errorf, so
// test with errors.Is.
var (
	ErrMissingTitle        = errors.New("profile entry has no title")
	ErrMissingDescription  = errors.New("profile entry has no description")
	ErrMissingPorts        = errors.New("profile entry has no ports")
	ErrEmptyPortsSection   = errors.New("profile entry ports are empty")
	ErrPortsSectionEmpty   = errors.New("ports section is empty")
	ErrPortNotANumber      = errors.New("port must be a number")
	ErrInvalidPortRange    = errors.New("invalid port range")
	ErrInvalidProtocol     = errors.New("not a valid protocol")
	ErrInvalidCIDR         = errors.New("cidr must be 0-32")
	ErrInvalidAddress      = errors.New("not a valid address")
	ErrInvalidIndex        = errors.New("not a valid rule index")
	ErrInvalidLoggingLevel = errors.New("not a valid logging level")
	ErrWrongRuleType       = errors.New("not a valid rule type")
	ErrWrongRuleDirection  = errors.New("not a valid rule direction")
	ErrInvalidDefaults     = errors.New("not a valid defaults clause")
	ErrInvalidStatus       = errors.New("no valid status line")
	ErrInvalidVersion      = errors.New("no valid version")
	ErrFileNotFound        = errors.New("profile file not found")
	ErrIO                  = errors.New("an IO error has occurred")
	ErrRuleSyntax          = errors.New("malformed rule line")
)
