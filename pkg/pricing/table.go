package pricing

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTableYAML []byte

// Table is a price list: purchasable node types plus the optional high
// availability control plane add-on, which is priced like a type.
type Table struct {
	Types            []core.TypeDescriptor
	HighAvailability *core.TypeDescriptor
}

// HighAvailabilityPrice returns the monthly add-on price in region, or an
// absent price when the table has none.
func (t *Table) HighAvailabilityPrice(region string, flags Flags) decimal.NullDecimal {
	price, ok := GetPrice(t.HighAvailability, region, flags)
	if !ok {
		return decimal.NullDecimal{}
	}
	return price.Monthly
}

type rawPrice struct {
	Monthly *float64 `yaml:"monthly"`
	Hourly  *float64 `yaml:"hourly"`
}

type rawRegionPrice struct {
	ID      string   `yaml:"id"`
	Monthly *float64 `yaml:"monthly"`
	Hourly  *float64 `yaml:"hourly"`
}

type rawType struct {
	ID           string           `yaml:"id"`
	Label        string           `yaml:"label"`
	Class        string           `yaml:"class"`
	Price        rawPrice         `yaml:"price"`
	RegionPrices []rawRegionPrice `yaml:"region_prices"`
}

type rawTable struct {
	Types            []rawType `yaml:"types"`
	HighAvailability *rawType  `yaml:"high_availability"`
}

// DefaultTable returns the price list compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads a price list from a YAML or JSON file.
func LoadTable(path string) (*Table, error) {
	// #nosec G304 - the price file path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table %s: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("price table %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a YAML (or JSON) price list. Type IDs must be
// non-empty and unique.
func ParseTable(data []byte) (*Table, error) {
	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse price table: %w", err)
	}

	t := &Table{Types: make([]core.TypeDescriptor, 0, len(raw.Types))}
	seen := make(map[string]bool, len(raw.Types))
	for i := range raw.Types {
		rt := raw.Types[i]
		if rt.ID == "" {
			return nil, fmt.Errorf("type at index %d has no id", i)
		}
		if seen[rt.ID] {
			return nil, fmt.Errorf("duplicate type %q", rt.ID)
		}
		seen[rt.ID] = true
		t.Types = append(t.Types, rt.descriptor())
	}

	if raw.HighAvailability != nil {
		ha := raw.HighAvailability.descriptor()
		t.HighAvailability = &ha
	}
	return t, nil
}

func (rt rawType) descriptor() core.TypeDescriptor {
	d := core.TypeDescriptor{
		ID:    rt.ID,
		Label: rt.Label,
		Class: rt.Class,
		Price: core.Price{
			Monthly: nullDecimal(rt.Price.Monthly),
			Hourly:  nullDecimal(rt.Price.Hourly),
		},
	}
	for _, rp := range rt.RegionPrices {
		d.RegionPrices = append(d.RegionPrices, core.RegionPrice{
			ID:      rp.ID,
			Monthly: nullDecimal(rp.Monthly),
			Hourly:  nullDecimal(rp.Hourly),
		})
	}
	return d
}

func nullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}
