package parser

import (
	"ufw-inspector/internal/model"
)

// Section is one named group of keys from a profile document. A nil value
// means the key is present without a value.
type Section struct {
	Name   string
	Values map[string]*string
}

// BuildApplicationEntry assembles one profile entry from its section keys.
// Key lookups are exact; loaders are expected to lower-case keys.
func BuildApplicationEntry(name string, values map[string]*string) (model.ApplicationEntry, error) {
	title := values["title"]
	if title == nil {
		return model.ApplicationEntry{}, model.ErrMissingTitle
	}
	description := values["description"]
	if description == nil {
		return model.ApplicationEntry{}, model.ErrMissingDescription
	}
	ports, ok := values["ports"]
	if !ok || ports == nil {
		return model.ApplicationEntry{}, model.ErrMissingPorts
	}

	parsed := ParsePortSpec(*ports)
	if len(parsed) == 0 {
		return model.ApplicationEntry{}, model.ErrEmptyPortsSection
	}

	return model.ApplicationEntry{
		Name:        name,
		Title:       *title,
		Description: *description,
		Ports:       parsed,
	}, nil
}

// BuildApplicationProfile builds every section independently; a failed
// section stays in place as an error result.
func BuildApplicationProfile(source string, sections []Section) model.ApplicationProfile {
	profile := model.ApplicationProfile{Source: source}
	for _, s := range sections {
		entry, err := BuildApplicationEntry(s.Name, s.Values)
		if err != nil {
			profile.Entries = append(profile.Entries, model.Fail[model.ApplicationEntry](err))
			continue
		}
		profile.Entries = append(profile.Entries, model.Ok(entry))
	}
	return profile
}
