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

// Package guard decides whether a view must be redrawn. A view declares the
// values it depends on in Props.UpdateFor; redraws are skipped while those
// values and the theme signals stay deep-equal.
package guard

import (
	"reflect"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Theme carries the style signals that force a redraw when they change.
type Theme struct {
	Name string
	// SpacingUnit is the padding, in cells, of one spacing step.
	SpacingUnit int
}

// Spacing returns the padding for n spacing steps.
func (t Theme) Spacing(n int) int {
	return n * t.SpacingUnit
}

// Props is the input of a guarded view.
type Props struct {
	// UpdateFor lists the values the view depends on. A nil list disables
	// the guard and every render draws.
	UpdateFor []any
	Theme     Theme
}

// allExported lets cmp look into unexported struct fields instead of
// panicking on them.
var allExported = cmp.Exporter(func(reflect.Type) bool { return true })

// sameFunc treats two funcs as equal when they are the same function value,
// so a callback held in UpdateFor does not force a redraw on every frame.
var sameFunc = cmp.FilterValues(
	func(x, y any) bool {
		return reflect.ValueOf(x).Kind() == reflect.Func && reflect.ValueOf(y).Kind() == reflect.Func
	},
	cmp.Comparer(func(x, y any) bool {
		return reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	}),
)

var equalOpts = []cmp.Option{allExported, sameFunc, cmpopts.EquateNaNs()}

// ShouldUpdate reports whether a view rendered with prev must be redrawn for
// next.
func ShouldUpdate(prev, next Props) bool {
	if prev.UpdateFor == nil {
		return true
	}
	return !deepEqual(prev.UpdateFor, next.UpdateFor) ||
		prev.Theme.Name != next.Theme.Name ||
		prev.Theme.Spacing(1) != next.Theme.Spacing(1)
}

// deepEqual compares a and b. NaN equals NaN. A panic during comparison,
// e.g. from a value's own Equal method, counts as changed.
func deepEqual(a, b []any) (equal bool) {
	defer func() {
		if r := recover(); r != nil {
			equal = false
		}
	}()
	return cmp.Equal(a, b, equalOpts...)
}

// Guard wraps a draw function and skips calls whose props have not changed.
// It is safe for concurrent use.
type Guard struct {
	mu    sync.Mutex
	draw  func()
	last  Props
	drawn bool
}

// New returns a Guard around draw.
func New(draw func()) *Guard {
	return &Guard{draw: draw}
}

// Render calls draw unless props are unchanged since the last draw, and
// reports whether it drew. The first call always draws.
func (g *Guard) Render(props Props) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.drawn && !ShouldUpdate(g.last, props) {
		return false
	}
	g.draw()
	props.UpdateFor = slices.Clone(props.UpdateFor)
	g.last = props
	g.drawn = true
	return true
}

// Reset forces the next Render to draw, e.g. after the screen was cleared.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.drawn = false
	g.mu.Unlock()
}
