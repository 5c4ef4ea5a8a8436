package version

import (
	"strconv"
	"strings"
)

// IsNewVersion reports whether candidate is newer than current.
//
// An empty current is always older. Otherwise the first three components
// are compared as strings and the first difference decides. A component
// missing on one side never makes the candidate newer.
func IsNewVersion(current, candidate string) bool {
	if current == "" {
		return true
	}
	cur := strings.Split(current, ".")
	cand := strings.Split(candidate, ".")
	for i := 0; i < 3; i++ {
		c, cok := component(cur, i)
		d, dok := component(cand, i)
		if cok == dok && c == d {
			continue
		}
		if !cok || !dok {
			return false
		}
		return d > c
	}
	return false
}

func component(parts []string, i int) (string, bool) {
	if i < len(parts) {
		return parts[i], true
	}
	return "", false
}

// Compare compares dotted versions numerically.
// Returns -1 if a < b, 0 if a == b, 1 if a > b. Missing components count as
// zero and non-numeric components compare as strings.
func Compare(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		x, _ := component(as, i)
		y, _ := component(bs, i)
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareComponent(x, y string) int {
	if x == "" {
		x = "0"
	}
	if y == "" {
		y = "0"
	}
	xi, xerr := strconv.Atoi(x)
	yi, yerr := strconv.Atoi(y)
	if xerr == nil && yerr == nil {
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	}
	return strings.Compare(x, y)
}
