/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package routes models load balancer routes and their rules, and the
// filter/sort/paginate pipeline behind the routes table.
package routes

import (
	"fmt"
	"sort"
	"strings"
)

// Protocols a route can serve.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
	ProtocolTCP   = "tcp"
)

// Match fields a rule can test.
const (
	MatchPathPrefix = "path_prefix"
	MatchPath       = "path"
	MatchHost       = "host"
	MatchAny        = ""
)

// Sort keys and directions accepted by Query.
const (
	OrderByLabel    = "label"
	OrderByProtocol = "protocol"
	OrderAsc        = "asc"
	OrderDesc       = "desc"

	DefaultPageSize = 25
)

// ServiceTarget receives a share of a rule's traffic.
type ServiceTarget struct {
	Label      string `json:"label"`
	Percentage int    `json:"percentage"`
}

// Rule matches requests and sends them to service targets.
type Rule struct {
	Hostname       string          `json:"hostname,omitempty"`
	MatchField     string          `json:"match_field,omitempty"`
	MatchValue     string          `json:"match_value,omitempty"`
	ServiceTargets []ServiceTarget `json:"service_targets"`
}

// Route is an ordered list of rules served under one protocol.
type Route struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Protocol string `json:"protocol"`
	Rules    []Rule `json:"rules"`
}

// Query selects one page of routes.
type Query struct {
	// Filter keeps routes whose label contains it, case-insensitively.
	Filter  string
	OrderBy string
	Order   string
	// Page is 1-based.
	Page     int
	PageSize int
	// Configured restricts the result to these route IDs when non-empty.
	Configured []int
}

// DefaultQuery returns the first page ordered by label, descending.
func DefaultQuery() Query {
	return Query{
		OrderBy:  OrderByLabel,
		Order:    OrderDesc,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Validate reports unknown sort keys or directions.
func (q Query) Validate() error {
	switch q.OrderBy {
	case "", OrderByLabel, OrderByProtocol:
	default:
		return fmt.Errorf("unknown order-by %q: use %s or %s", q.OrderBy, OrderByLabel, OrderByProtocol)
	}
	switch q.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("unknown order %q: use %s or %s", q.Order, OrderAsc, OrderDesc)
	}
	return nil
}

// Page is one page of routes plus the size of the whole filtered result.
type Page struct {
	Routes   []Route `json:"data"`
	Results  int     `json:"results"`
	Page     int     `json:"page"`
	Pages    int     `json:"pages"`
	PageSize int     `json:"page_size"`
}

// Apply filters, sorts and paginates routes. The input is not modified.
// A page past the end is clamped to the last page.
func Apply(routes []Route, q Query) Page {
	filtered := make([]Route, 0, len(routes))
	configured := make(map[int]bool, len(q.Configured))
	for _, id := range q.Configured {
		configured[id] = true
	}
	needle := strings.ToLower(q.Filter)

	for _, r := range routes {
		if needle != "" && !strings.Contains(strings.ToLower(r.Label), needle) {
			continue
		}
		if len(configured) > 0 && !configured[r.ID] {
			continue
		}
		filtered = append(filtered, r)
	}

	sortRoutes(filtered, q.OrderBy, q.Order)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(filtered) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Routes:   filtered[start:end],
		Results:  len(filtered),
		Page:     page,
		Pages:    pages,
		PageSize: size,
	}
}

func sortRoutes(rs []Route, orderBy, order string) {
	key := func(r Route) string {
		if orderBy == OrderByProtocol {
			return r.Protocol
		}
		return strings.ToLower(r.Label)
	}
	desc := order != OrderAsc

	sort.SliceStable(rs, func(i, j int) bool {
		ki, kj := key(rs[i]), key(rs[j])
		if ki == kj {
			return rs[i].ID < rs[j].ID
		}
		if desc {
			return ki > kj
		}
		return ki < kj
	})
}
