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

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	pt "github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"gitlab.com/davidxarnold/cloudconsole/pkg/pricing"
	"gitlab.com/davidxarnold/cloudconsole/pkg/routes"
	"golang.org/x/term"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Output formats.
const (
	outputTxt    = "txt"
	outputPretty = "pretty"
	outputJSON   = "json"
)

const (
	minBoxWidth     = 60
	maxBoxWidth     = 200
	defaultBoxWidth = 120

	noPrice  = "-"
	noRoutes = "No Routes"
)

// getTerminalWidth returns the width of stdout, clamped to a sane range.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = defaultBoxWidth
	}
	if width < minBoxWidth {
		return minBoxWidth
	}
	if width > maxBoxWidth {
		return maxBoxWidth
	}
	return width
}

func formatMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return noPrice
	}
	return "$" + d.Decimal.StringFixed(2)
}

func formatMilliCPU(q *resource.Quantity) string {
	if q == nil || q.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(q.MilliValue())/1000.0)
}

func formatBytes(q *resource.Quantity) string {
	if q == nil || q.IsZero() {
		return "0"
	}

	bytes := q.Value()
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2fGi", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2fMi", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2fKi", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

func formatResourceRatio(used, total *resource.Quantity, isMemory bool) string {
	if isMemory {
		return fmt.Sprintf("%s / %s", formatBytes(used), formatBytes(total))
	}
	return fmt.Sprintf("%s / %s", formatMilliCPU(used), formatMilliCPU(total))
}

// newTable returns a table writer styled for format: borderless for txt,
// colored and cut to the terminal width for pretty.
func newTable(w io.Writer, format string) pt.Writer {
	t := pt.NewWriter()
	t.SetOutputMirror(w)
	if format == outputPretty {
		t.SetStyle(pt.StyleColoredBright)
		t.SetAllowedRowLength(getTerminalWidth())
		return t
	}
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateFooter = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateRows = false
	return t
}

func renderJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderQuote prints a per-pool price breakdown with the high availability
// add-on and the cluster total.
func renderQuote(w io.Writer, q pricing.Quote, format string) error {
	if format == outputJSON {
		return renderJSON(w, q)
	}

	t := newTable(w, format)
	t.SetTitle("Region: %s", q.Region)
	t.AppendHeader(pt.Row{"Pool", "Type", "Label", "Nodes", "Unit / Month", "Monthly"})
	for _, l := range q.Lines {
		t.AppendRow(pt.Row{l.Pool, l.Type, l.Label, l.Count, formatMoney(l.UnitPrice), formatMoney(l.Monthly)})
	}
	if q.HighAvailability.Valid {
		t.AppendRow(pt.Row{"HA control plane", "", "", "", "", formatMoney(q.HighAvailability)})
	}
	t.AppendFooter(pt.Row{"Total", "", "", "", "", "$" + q.Total.StringFixed(2)})
	t.Render()
	return nil
}

// renderRoutes prints one page of routes. Each route row carries its rules
// as a nested table; an empty page prints a single "No Routes" row.
func renderRoutes(w io.Writer, p routes.Page, format string) error {
	if format == outputJSON {
		return renderJSON(w, p)
	}

	t := newTable(w, format)
	t.AppendHeader(pt.Row{"ID", "Route Label", "Rules", "Protocol"})
	if len(p.Routes) == 0 {
		t.AppendRow(pt.Row{"", noRoutes, "", ""})
	}
	for _, r := range p.Routes {
		t.AppendRow(pt.Row{r.ID, r.Label, rulesTable(r.Rules, format), strings.ToUpper(r.Protocol)})
		if format == outputPretty {
			t.AppendSeparator()
		}
	}
	t.AppendFooter(pt.Row{"", fmt.Sprintf("Page %d of %d", p.Page, p.Pages), fmt.Sprintf("%d results", p.Results), ""})
	t.Render()
	return nil
}

// rulesTable renders the inner rules table of a route.
func rulesTable(rules []routes.Rule, format string) string {
	if len(rules) == 0 {
		return "No Rules"
	}

	t := pt.NewWriter()
	if format == outputPretty {
		t.SetStyle(pt.StyleLight)
	} else {
		t.Style().Options = pt.OptionsNoBordersAndSeparators
	}
	t.AppendHeader(pt.Row{"Hostname", "Match", "Value", "Targets"})
	for _, rule := range rules {
		match := rule.MatchField
		if match == routes.MatchAny {
			match = "any"
		}
		t.AppendRow(pt.Row{rule.Hostname, match, rule.MatchValue, serviceTargets(rule.ServiceTargets)})
	}
	return t.Render()
}

func serviceTargets(targets []routes.ServiceTarget) string {
	if len(targets) == 0 {
		return noPrice
	}
	parts := make([]string, 0, len(targets))
	for _, st := range targets {
		parts = append(parts, st.Label+" ("+strconv.Itoa(st.Percentage)+"%)")
	}
	return strings.Join(parts, "\n")
}
