package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/pkg/errors"
)

// Release is the version of spie, unless the binary was built from a
// tagged module.
const Release = "0.3.0"

type Version struct {
	major int
	minor int
	patch int
	// pre holds any suffix such as "-rc.1" or a pseudo-version tail.
	pre string
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.major, v.minor, v.patch, v.pre)
}

// Parse reads "1.2.3", with an optional leading "v" and trailing suffix.
func Parse(s string) (*Version, error) {
	s = strings.TrimPrefix(s, "v")
	var v Version
	n, err := fmt.Sscanf(s, "%d.%d.%d", &v.major, &v.minor, &v.patch)
	if err != nil || n != 3 {
		return nil, errors.Errorf("invalid version '%s'", s)
	}
	core := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if !strings.HasPrefix(s, core) {
		return nil, errors.Errorf("invalid version '%s'", s)
	}
	v.pre = s[len(core):]
	return &v, nil
}

// Current returns the version of the running binary.
func Current() *Version {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v, err := Parse(info.Main.Version); err == nil {
			return v
		}
	}
	v, _ := Parse(Release)
	return v
}
