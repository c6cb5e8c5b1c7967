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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gitlab.com/davidxarnold/cloudconsole/pkg/guard"
	"gitlab.com/davidxarnold/cloudconsole/pkg/pricing"
	"gitlab.com/davidxarnold/cloudconsole/pkg/routes"
	"gitlab.com/davidxarnold/cloudconsole/pkg/skeleton"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/kubernetes"
	metricsV1beta1api "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

// ViewMode represents the current display mode
type ViewMode int

const (
	ViewPools ViewMode = iota
	ViewRoutes
)

const (
	ctlC = "<C-c>"

	statusReady    = "✓"
	statusNotReady = "⊘"

	// share of the width given to the first column
	poolNameWidth = 20

	liveHelp = "[o]Pools [r]Routes [s]Sort [d]Direction [←→]Page [c]Compact [q]Quit"
)

var (
	poolHeader  = []string{"POOL", "TYPE", "NODES", "CPU USED / ALLOC", "MEM USED / ALLOC", "UNIT / MO", "MONTHLY"}
	routeHeader = []string{"ID", "ROUTE", "PROTOCOL", "RULE", "TARGETS"}
)

// liveView is everything one frame shows. Frames are only drawn when a view
// differs from the last one drawn.
type liveView struct {
	title  string
	header []string
	rows   [][]string
	status string
	// updated is when the watch cache last changed; zero while loading.
	updated time.Time
}

// LiveState holds the state for the live TUI
type LiveState struct {
	mode      ViewMode
	namespace string
	query     routes.Query

	priceTable *pricing.Table
	flags      pricing.Flags
	region     string
	ha         bool

	nodeMetrics map[string]*metricsV1beta1api.NodeMetrics

	theme  guard.Theme
	guard  *guard.Guard
	view   liveView
	width  int
	height int

	table     *widgets.Table
	statusBar *widgets.Paragraph
}

func newLiveState(priceTable *pricing.Table) *LiveState {
	state := &LiveState{
		mode:       ViewPools,
		query:      routes.DefaultQuery(),
		priceTable: priceTable,
		theme:      guard.Theme{Name: "default", SpacingUnit: 1},
	}
	state.guard = guard.New(state.draw)
	return state
}

// NewLiveCmd creates the live subcommand
func NewLiveCmd(cc *ConsoleConfig) *cobra.Command {
	var (
		refresh       int
		ha            bool
		allNamespaces bool
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Display a live dashboard of node pools, prices and routes",
		Long: `Display a live, continuously updating terminal UI.

Views:
  - Pools (default): nodes grouped into pools with usage and monthly price
  - Routes: Ingress routes and their rules, paged

Data arrives from informers; placeholder rows are shown until the first
sync completes. The screen is only redrawn when what it shows changes.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			k8sClient, mc, err := cc.Clients()
			if err != nil {
				return err
			}
			priceTable, err := loadPriceTable(viper.GetString("price-file"))
			if err != nil {
				return err
			}

			state := newLiveState(priceTable)
			state.flags = pricing.Flags{DCSpecificPricing: viper.GetBool("dc-specific-pricing")}
			state.region = viper.GetString("region")
			state.ha = ha
			state.theme = liveTheme(viper.GetString("theme"), viper.GetBool("compact"))
			if !allNamespaces {
				if state.namespace, err = cc.Namespace(); err != nil {
					return err
				}
			}

			interval := time.Duration(viper.GetInt("refresh")) * time.Second
			return runLive(cmd.Context(), k8sClient, mc, state, interval)
		},
	}

	cmd.Flags().IntVarP(&refresh, "refresh", "r", 2, "Refresh interval in seconds")
	cmd.Flags().String("region", "", "Region to price in (default: the region most nodes are labelled with)")
	cmd.Flags().BoolVar(&ha, "ha", false, "Add the high availability control plane price to the total")
	cmd.Flags().Bool("dc-specific-pricing", false, "Use region specific prices where the price table has them")
	cmd.Flags().String("price-file", "", "YAML or JSON price table (default: built-in)")
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "Show routes in all namespaces")

	return cmd
}

func liveTheme(name string, compact bool) guard.Theme {
	if name == "" {
		name = "default"
	}
	t := guard.Theme{Name: name, SpacingUnit: 1}
	if compact {
		t.SpacingUnit = 0
	}
	return t
}

func themeColor(name string) ui.Color {
	switch name {
	case "light":
		return ui.ColorBlue
	case "mono":
		return ui.ColorWhite
	default:
		return ui.ColorCyan
	}
}

func runLive(
	ctx context.Context,
	k8sClient kubernetes.Interface,
	mc metricsclientset.Interface,
	state *LiveState,
	refreshInterval time.Duration,
) error {
	if refreshInterval <= 0 {
		refreshInterval = 2 * time.Second
	}

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %w", err)
	}
	defer ui.Close()

	state.table = widgets.NewTable()
	state.statusBar = widgets.NewParagraph()

	wc := NewWatchCache(k8sClient, 10*time.Minute)
	go wc.Start()
	defer wc.Stop()

	// placeholder frame until the informers have synced
	updateDisplay(state, wc)

	uiEvents := ui.PollEvents()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-uiEvents:
			if handleUIEvent(e, state) {
				return nil
			}
			updateDisplay(state, wc)

		case <-wc.Updates():
			updateDisplay(state, wc)

		case <-ticker.C:
			state.nodeMetrics = fetchNodeMetrics(ctx, mc)
			updateDisplay(state, wc)

		case <-ctx.Done():
			return nil
		}
	}
}

// handleUIEvent processes UI events and returns true if the app should exit.
func handleUIEvent(e ui.Event, state *LiveState) bool {
	switch e.ID {
	case "q", ctlC:
		return true
	case "o":
		state.mode = ViewPools
	case "r":
		state.mode = ViewRoutes
	case "s":
		if state.query.OrderBy == routes.OrderByProtocol {
			state.query.OrderBy = routes.OrderByLabel
		} else {
			state.query.OrderBy = routes.OrderByProtocol
		}
		state.query.Page = 1
	case "d":
		if state.query.Order == routes.OrderAsc {
			state.query.Order = routes.OrderDesc
		} else {
			state.query.Order = routes.OrderAsc
		}
	case "<Right>", "]":
		state.query.Page++
	case "<Left>", "[":
		if state.query.Page > 1 {
			state.query.Page--
		}
	case "c":
		if state.theme.SpacingUnit > 0 {
			state.theme.SpacingUnit = 0
		} else {
			state.theme.SpacingUnit = 1
		}
	}
	return false
}

func updateDisplay(state *LiveState, wc *WatchCache) {
	width, height := ui.TerminalDimensions()

	var v liveView
	switch {
	case !wc.Synced():
		v = loadingView(state)
	case state.mode == ViewRoutes:
		v = routesView(state, wc.GetIngresses(state.namespace))
	default:
		nm, totals := core.ComputeNodeSnapshot(wc.GetNodes(), wc.GetPodsByNode(), state.nodeMetrics)
		v = poolsView(state, core.NewSnapshot(nm, totals))
	}
	if wc.Synced() {
		v = withCacheStats(v, wc)
	}

	if state.present(v, width, height) {
		log.Debugf("redrew %s", v.title)
	}
}

// withCacheStats adds the watch cache counts and update time to v.
func withCacheStats(v liveView, wc *WatchCache) liveView {
	nodes, pods, last := wc.GetStats()
	v.status = fmt.Sprintf("%s | %d nodes, %d pods", v.status, nodes, pods)
	v.updated = last
	return v
}

// present draws v unless it matches the frame on screen.
func (s *LiveState) present(v liveView, width, height int) bool {
	s.view, s.width, s.height = v, width, height
	return s.guard.Render(guard.Props{
		UpdateFor: []any{v.title, v.header, v.rows, v.status, v.updated, width, height},
		Theme:     s.theme,
	})
}

func (s *LiveState) draw() {
	if s.table == nil || s.statusBar == nil {
		return
	}
	spacing := s.theme.Spacing(1)

	t := s.table
	t.Title = s.view.title
	t.Rows = append([][]string{s.view.header}, s.view.rows...)
	t.ColumnWidths = skeleton.ColumnWidths(s.columnOptions(), s.width-2)
	t.TextStyle = ui.NewStyle(ui.ColorWhite)
	t.RowSeparator = spacing > 0
	t.PaddingLeft = spacing
	t.BorderStyle = ui.NewStyle(themeColor(s.theme.Name))
	t.RowStyles[0] = ui.NewStyle(ui.ColorWhite, ui.ColorBlack, ui.ModifierBold)
	t.SetRect(0, 0, s.width, s.height-1)

	s.statusBar.Border = false
	updated := noPrice
	if !s.view.updated.IsZero() {
		updated = s.view.updated.Format("15:04:05")
	}
	s.statusBar.Text = fmt.Sprintf(" %s | Updated: %s | %s", s.view.status, updated, liveHelp)
	s.statusBar.SetRect(0, s.height-1, s.width, s.height)

	ui.Clear()
	ui.Render(t, s.statusBar)
}

func (s *LiveState) columnOptions() skeleton.Options {
	opts := skeleton.Options{
		Columns:       len(poolHeader),
		FirstColWidth: poolNameWidth,
		Compact:       s.theme.Spacing(1) == 0,
	}
	if s.mode == ViewRoutes {
		opts.Columns = len(routeHeader)
		opts.FirstColWidth = 0
	}
	return opts
}

// loadingView shows placeholder rows shaped like the current view.
func loadingView(s *LiveState) liveView {
	header := poolHeader
	if s.mode == ViewRoutes {
		header = routeHeader
	}
	width := s.width
	if width <= 0 {
		width = minBoxWidth
	}
	opts := s.columnOptions()
	opts.HasEntityIcon = s.mode == ViewPools
	return liveView{
		title:  skeleton.Label,
		header: header,
		rows:   skeleton.Rows(opts, width-2),
		status: "Loading",
	}
}

// poolsView prices every pool of snap and adds a total row.
func poolsView(s *LiveState, snap core.Snapshot) liveView {
	region := s.region
	if region == "" {
		region = snap.Region
	}

	var types []core.TypeDescriptor
	if s.priceTable != nil {
		types = s.priceTable.Types
	}

	sums := core.SummarizePools(snap.Nodes)
	rows := make([][]string, 0, len(sums)+2)
	for i := range sums {
		p := &sums[i]
		unit := pricing.UnitPrice(p.Type, region, types, s.flags)
		icon := statusReady
		if p.Ready < p.Count {
			icon = statusNotReady
		}
		rows = append(rows, []string{
			icon + " " + p.ID,
			p.Type,
			fmt.Sprintf("%d/%d", p.Ready, p.Count),
			formatResourceRatio(&p.UsageCPU, &p.AllocatableCPU, false),
			formatResourceRatio(&p.UsageMemory, &p.AllocatableMemory, true),
			formatMoney(unit),
			formatMoney(pricing.PoolPrice(p.Count, unit)),
		})
	}

	opts := pricing.TotalClusterPriceOptions{
		Flags:  s.flags,
		Pools:  snap.Pools,
		Region: region,
		Types:  types,
	}
	if s.ha && s.priceTable != nil {
		opts.HighAvailabilityPrice = s.priceTable.HighAvailabilityPrice(region, s.flags)
		rows = append(rows, []string{"HA control plane", "", "", "", "", "", formatMoney(opts.HighAvailabilityPrice)})
	}
	total := pricing.TotalClusterPrice(opts)
	rows = append(rows, []string{"TOTAL", "", strconv.Itoa(len(snap.Nodes)), "", "", "", "$" + total.StringFixed(2)})

	return liveView{
		title:  "Node Pools",
		header: poolHeader,
		rows:   rows,
		status: fmt.Sprintf("POOLS | Region: %s", orDash(region)),
	}
}

// routesView shows one page of routes, one line per rule.
func routesView(s *LiveState, ingresses []networkingv1.Ingress) liveView {
	page := routes.Apply(routes.FromIngresses(ingresses), s.query)
	s.query.Page = page.Page

	rows := make([][]string, 0, len(page.Routes))
	if len(page.Routes) == 0 {
		rows = append(rows, []string{"", noRoutes, "", "", ""})
	}
	for _, r := range page.Routes {
		first := []string{strconv.Itoa(r.ID), r.Label, strings.ToUpper(r.Protocol), "", ""}
		if len(r.Rules) == 0 {
			rows = append(rows, first)
			continue
		}
		for i, rule := range r.Rules {
			row := []string{"", "", "", ruleSummary(rule), targetSummary(rule.ServiceTargets)}
			if i == 0 {
				row[0], row[1], row[2] = first[0], first[1], first[2]
			}
			rows = append(rows, row)
		}
	}

	ns := s.namespace
	if ns == "" {
		ns = "all"
	}
	return liveView{
		title:  "Routes",
		header: routeHeader,
		rows:   rows,
		status: fmt.Sprintf("ROUTES | NS: %s | Sort: %s %s | Page %d/%d (%d)",
			ns, s.query.OrderBy, s.query.Order, page.Page, page.Pages, page.Results),
	}
}

func ruleSummary(r routes.Rule) string {
	host := r.Hostname
	if host == "" {
		host = "*"
	}
	if r.MatchField == routes.MatchHost || r.MatchField == routes.MatchAny {
		return host
	}
	return host + r.MatchValue
}

func targetSummary(targets []routes.ServiceTarget) string {
	parts := make([]string, 0, len(targets))
	for _, t := range targets {
		parts = append(parts, fmt.Sprintf("%s %d%%", t.Label, t.Percentage))
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return noPrice
	}
	return s
}
