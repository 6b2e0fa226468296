package sqlite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// matchCode identifies the shape of a recognized address.
type matchCode int

const (
	noMatch matchCode = iota
	matchItems
	matchItemID
)

// idWildcard matches one path segment made only of decimal digits.
const idWildcard = "#"

// route maps an authority and path pattern to a code.
type route struct {
	authority string
	segments  []string
	code      matchCode
}

// matcher is the address routing table. It is built once at package
// initialization and only read afterwards.
type matcher struct {
	scheme string
	routes []route
}

func newMatcher(scheme string, routes ...route) *matcher {
	return &matcher{scheme: scheme, routes: routes}
}

func pattern(authority, path string, code matchCode) route {
	return route{authority: authority, segments: strings.Split(path, "/"), code: code}
}

// addressRoutes recognizes the collection and record addresses.
var addressRoutes = newMatcher(types.Scheme,
	pattern(types.Authority, types.PathItems, matchItems),
	pattern(types.Authority, types.PathItems+"/"+idWildcard, matchItemID),
)

// match returns the code for addr and, for record addresses, the id.
func (m *matcher) match(addr types.Address) (matchCode, int64) {
	rest, ok := strings.CutPrefix(string(addr), m.scheme+"://")
	if !ok || strings.ContainsAny(rest, "?#") {
		return noMatch, 0
	}
	authority, path, ok := strings.Cut(rest, "/")
	if !ok {
		return noMatch, 0
	}
	segments := strings.Split(path, "/")

	for _, r := range m.routes {
		if r.authority != authority || len(r.segments) != len(segments) {
			continue
		}
		var id int64
		matched := true
		for i, want := range r.segments {
			got := segments[i]
			if want != idWildcard {
				if got != want {
					matched = false
					break
				}
				continue
			}
			n, ok := parseID(got)
			if !ok {
				matched = false
				break
			}
			id = n
		}
		if matched {
			return r.code, id
		}
	}
	return noMatch, 0
}

// parseID accepts a non-empty run of ASCII digits that fits in int64.
func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// target is a matched address with its effective row filter.
type target struct {
	addr      types.Address
	code      matchCode
	selection string
	args      []any
}

// resolve matches addr and computes the filter. A record address replaces
// the caller's selection with id equality bound as a parameter.
func resolve(addr types.Address, selection string, args []any) (target, error) {
	code, id := addressRoutes.match(addr)
	switch code {
	case matchItems:
		return target{addr: addr, code: code, selection: selection, args: args}, nil
	case matchItemID:
		return target{addr: addr, code: code, selection: types.ColumnID + " = ?", args: []any{id}}, nil
	default:
		return target{}, fmt.Errorf("%w: %q", types.ErrInvalidAddress, addr)
	}
}
