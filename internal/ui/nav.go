package ui

import (
	"fmt"
	"strings"
)

// Route is a top-level page of the shell.
type Route int

const (
	RouteHome Route = iota
	RouteQuran
	RouteAzkar
	RouteTimes
	RouteMosques
	RouteLive
	RouteAbout
)

var routes = []struct {
	route Route
	name  string
	title string
}{
	{RouteHome, "home", "Home"},
	{RouteQuran, "quran", "Quran"},
	{RouteAzkar, "azkar", "Azkar"},
	{RouteTimes, "times", "Prayer Times"},
	{RouteMosques, "mosques", "Mosques"},
	{RouteLive, "live", "Live TV"},
	{RouteAbout, "about", "About"},
}

func (r Route) String() string {
	for _, rt := range routes {
		if rt.route == r {
			return rt.name
		}
	}
	return "unknown"
}

func (r Route) Title() string {
	for _, rt := range routes {
		if rt.route == r {
			return rt.title
		}
	}
	return ""
}

// ParseRoute accepts a route name or its number key.
func ParseRoute(s string) (Route, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, rt := range routes {
		if s == rt.name || s == fmt.Sprint(i+1) {
			return rt.route, nil
		}
	}
	return RouteHome, fmt.Errorf("unknown page %q (want one of %s)", s, strings.Join(RouteNames(), ", "))
}

func RouteNames() []string {
	names := make([]string, len(routes))
	for i, rt := range routes {
		names[i] = rt.name
	}
	return names
}

// routeForKey maps the number keys 1-7 to routes.
func routeForKey(r rune) (Route, bool) {
	idx := int(r - '1')
	if idx < 0 || idx >= len(routes) {
		return RouteHome, false
	}
	return routes[idx].route, true
}

// renderNavBar lists the routes with the active one highlighted.
func renderNavBar(active Route, keyColor, activeColor string) string {
	var b strings.Builder
	for i, rt := range routes {
		if i > 0 {
			b.WriteString("  ")
		}
		if rt.route == active {
			fmt.Fprintf(&b, "[%s::b] %d %s [-::-]", activeColor, i+1, rt.title)
		} else {
			fmt.Fprintf(&b, " [%s]%d[-] %s ", keyColor, i+1, rt.title)
		}
	}
	return b.String()
}
