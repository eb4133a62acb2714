package report

import (
	"fmt"
	"regexp"
	"strconv"

	"ufw-inspector/internal/model"
)

var versionRe = regexp.MustCompile(`(\w+) (\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts "<tool> <major>.<minor>[.<patch>]" from `ufw version`.
func ParseVersion(out model.CommandOutput) (model.Version, error) {
	if err := checkExit(out); err != nil {
		return model.Version{}, err
	}
	m := versionRe.FindStringSubmatch(out.Stdout)
	if m == nil {
		return model.Version{}, fmt.Errorf("%w: couldn't find a valid version in %q", model.ErrInvalidVersion, out.Stdout)
	}

	v := model.Version{Tool: m[1]}
	var err error
	if v.Major, err = strconv.Atoi(m[2]); err != nil {
		return model.Version{}, fmt.Errorf("%w: %s", model.ErrInvalidVersion, err.Error())
	}
	if v.Minor, err = strconv.Atoi(m[3]); err != nil {
		return model.Version{}, fmt.Errorf("%w: %s", model.ErrInvalidVersion, err.Error())
	}
	if m[4] != "" {
		patch, err := strconv.Atoi(m[4])
		if err != nil {
			return model.Version{}, fmt.Errorf("%w: %s", model.ErrInvalidVersion, err.Error())
		}
		v.Patch = &patch
	}
	return v, nil
}
