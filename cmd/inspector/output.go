package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/ufwcmd"
	"ufw-inspector/internal/utils"
)

func formatPort(p model.Port) string {
	s := fmt.Sprintf("%d", p.Number)
	if p.EndNumber != nil {
		s += fmt.Sprintf(":%d", *p.EndNumber)
	}
	var protos []string
	for _, proto := range p.Protocols {
		if proto != model.ProtocolAny {
			protos = append(protos, proto.String())
		}
	}
	if len(protos) > 0 {
		s += "/" + strings.Join(protos, ",")
	}
	return s
}

func formatPortResults(results []model.Result[model.Port]) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			parts = append(parts, "<"+r.Err.Error()+">")
			continue
		}
		parts = append(parts, formatPort(r.Value))
	}
	return strings.Join(parts, " ")
}

func printProfiles(w io.Writer, results []model.Result[model.ApplicationProfile]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "error: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\n", r.Value.Source)
		for _, e := range r.Value.Entries {
			if e.Err != nil {
				fmt.Fprintf(tw, "  error:\t%v\t\n", e.Err)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Value.Name, e.Value.Title, formatPortResults(e.Value.Ports))
		}
	}
}

func formatAddress(a model.Address) string {
	s := "Anywhere"
	if !a.IsAny() {
		s = fmt.Sprintf("%s (%d addresses)", a.Prefix, utils.PrefixSize(a.Prefix))
	}
	if a.Port != nil {
		s += fmt.Sprintf(" port %d", *a.Port)
	}
	if a.Protocol != model.ProtocolAny {
		s += " proto " + a.Protocol.String()
	}
	return s
}

func printRule(w io.Writer, rule model.Rule) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	defer tw.Flush()

	iface := rule.Interface
	if iface == "" {
		iface = "-"
	}
	fmt.Fprintf(tw, "index:\t%d\n", rule.Index)
	fmt.Fprintf(tw, "ipv6:\t%t\n", rule.IPv6)
	fmt.Fprintf(tw, "interface:\t%s\n", iface)
	fmt.Fprintf(tw, "action:\t%s %s\n", rule.Action.Modifier, rule.Action.Direction)
	fmt.Fprintf(tw, "destination:\t%s\n", formatAddress(rule.Destination))
	fmt.Fprintf(tw, "source:\t%s\n", formatAddress(rule.Source))
}

func formatEndpoint(ep model.Endpoint) string {
	var parts []string
	if ep.Address == nil {
		parts = append(parts, "Anywhere")
	} else {
		parts = append(parts, ep.Address.String())
	}
	for _, p := range ep.Ports {
		parts = append(parts, formatPort(p))
	}
	if ep.Application != "" {
		app := ep.Application
		if len(ep.AppPorts) > 0 {
			ports := make([]string, len(ep.AppPorts))
			for i, p := range ep.AppPorts {
				ports[i] = formatPort(p)
			}
			app += " [" + strings.Join(ports, " ") + "]"
		}
		parts = append(parts, app)
	}
	if ep.Interface != "" {
		parts = append(parts, "on "+ep.Interface)
	}
	return strings.Join(parts, " ")
}

func printRuleEntries(w io.Writer, entries []model.Result[model.RuleEntry]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tTo\tAction\tFrom\tIP\tComment")
	for _, r := range entries {
		if r.Err != nil {
			fmt.Fprintf(tw, "?\terror: %v\t\t\t\t\n", r.Err)
			continue
		}
		e := r.Value
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%s\t%s\n",
			e.Number, formatEndpoint(e.Destination), e.Action.Type, e.Action.Direction,
			formatEndpoint(e.Source), e.IPVersion, e.Comment)
	}
}

func printState(w io.Writer, st ufwcmd.State) {
	if st.Version.OK() {
		fmt.Fprintf(w, "Version: %s\n", st.Version.Value)
	} else {
		fmt.Fprintf(w, "Version: error: %v\n", st.Version.Err)
	}

	if !st.Verbose.OK() {
		fmt.Fprintf(w, "Status: error: %v\n", st.Verbose.Err)
	} else {
		v := st.Verbose.Value
		if v.Enabled.OK() {
			state := "inactive"
			if v.Enabled.Value {
				state = "active"
			}
			fmt.Fprintf(w, "Status: %s\n", state)
		} else {
			fmt.Fprintf(w, "Status: error: %v\n", v.Enabled.Err)
		}
		if v.Logging.OK() {
			fmt.Fprintf(w, "Logging: %s\n", v.Logging.Value)
		} else {
			fmt.Fprintf(w, "Logging: error: %v\n", v.Logging.Err)
		}
		if v.Defaults.OK() {
			for _, d := range v.Defaults.Value {
				if d.Err != nil {
					fmt.Fprintf(w, "Default: error: %v\n", d.Err)
					continue
				}
				fmt.Fprintf(w, "Default: %s (%s)\n", d.Value.Policy, d.Value.Direction)
			}
		} else {
			fmt.Fprintf(w, "Default: error: %v\n", v.Defaults.Err)
		}
	}

	if st.Applications.OK() {
		fmt.Fprintf(w, "Applications: %s\n", strings.Join(st.Applications.Value, ", "))
	} else {
		fmt.Fprintf(w, "Applications: error: %v\n", st.Applications.Err)
	}

	fmt.Fprintln(w)
	if st.Rules.OK() {
		printRuleEntries(w, st.Rules.Value)
	} else {
		fmt.Fprintf(w, "Rules: error: %v\n", st.Rules.Err)
	}
}
