// Package router selects canned chat replies by keyword.
package router

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"site-gateway/internal/domain"
)

// FallbackRoute names the match returned when no keyword is present.
const FallbackRoute = "default"

//go:embed routes.yaml
var defaultTable []byte

// Route maps a keyword to its canned reply.
type Route struct {
	Name    string `yaml:"name"`
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// Table is the on-disk routing table. Route order is priority order.
type Table struct {
	Routes   []Route `yaml:"routes"`
	Fallback string  `yaml:"fallback"`
	Apology  string  `yaml:"apology"`
}

// Match is the outcome of routing one message.
type Match struct {
	Route string
	Reply string
}

type Router struct {
	routes   []Route
	fallback string
	apology  string
}

// New validates t and builds a Router. Keywords are matched lowercased.
func New(t Table) (*Router, error) {
	if len(t.Routes) == 0 {
		return nil, errors.New("router: at least one route is required")
	}
	seen := make(map[string]struct{}, len(t.Routes))
	routes := make([]Route, 0, len(t.Routes))
	for i, r := range t.Routes {
		r.Name = strings.TrimSpace(r.Name)
		r.Keyword = strings.ToLower(strings.TrimSpace(r.Keyword))
		r.Reply = strings.TrimSpace(r.Reply)
		switch {
		case r.Name == "":
			return nil, fmt.Errorf("router: route %d: name must not be empty", i)
		case r.Name == FallbackRoute:
			return nil, fmt.Errorf("router: route %d: name %q is reserved", i, FallbackRoute)
		case r.Keyword == "":
			return nil, fmt.Errorf("router: route %q: keyword must not be empty", r.Name)
		case r.Reply == "":
			return nil, fmt.Errorf("router: route %q: reply must not be empty", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("router: duplicate route %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		routes = append(routes, r)
	}
	fallback := strings.TrimSpace(t.Fallback)
	if fallback == "" {
		return nil, errors.New("router: fallback reply must not be empty")
	}
	apology := strings.TrimSpace(t.Apology)
	if apology == "" {
		return nil, errors.New("router: apology reply must not be empty")
	}
	return &Router{routes: routes, fallback: fallback, apology: apology}, nil
}

// Parse builds a Router from a YAML routing table.
func Parse(data []byte) (*Router, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("router: decode table: %w", err)
	}
	return New(t)
}

// LoadFile reads a routing table from path. An empty path yields the
// built-in table.
func LoadFile(path string) (*Router, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in routing table.
func Default() (*Router, error) {
	return Parse(defaultTable)
}

// Match picks the reply for msg. History is accepted for interface
// compatibility but does not influence the route.
func (r *Router) Match(_ []domain.ChatMessage, msg domain.ChatMessage) Match {
	content := strings.ToLower(msg.Content)
	for _, route := range r.routes {
		if strings.Contains(content, route.Keyword) {
			return Match{Route: route.Name, Reply: route.Reply}
		}
	}
	return Match{Route: FallbackRoute, Reply: r.fallback}
}

// Apology is the reply used when a turn could not be completed.
func (r *Router) Apology() domain.ChatMessage {
	return domain.ChatMessage{Role: domain.RoleAssistant, Content: r.apology}
}
