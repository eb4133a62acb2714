package report

import (
	"bufio"
	"fmt"
	"strings"

	"ufw-inspector/internal/model"
)

// ParseAppList returns the application names printed by `ufw app list`, in
// order. The "Available applications:" header is not a name.
func ParseAppList(out model.CommandOutput) ([]string, error) {
	if err := checkExit(out); err != nil {
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(strings.NewReader(out.Stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return names, fmt.Errorf("%w: %s", model.ErrIO, err.Error())
	}
	return names, nil
}
