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

// Package pricing calculates monthly prices for node types, node pools and
// whole clusters from an already loaded price table. Lookups that cannot be
// satisfied yield an absent price (an invalid decimal.NullDecimal) and
// aggregation treats absent prices as zero; nothing in this package returns
// an error.
package pricing

import (
	"github.com/shopspring/decimal"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
)

// Flags carries the feature flags that change price selection.
type Flags struct {
	// DCSpecificPricing enables per-region price overrides.
	DCSpecificPricing bool
}

// FindType returns the descriptor with the given ID, or nil.
func FindType(types []core.TypeDescriptor, id string) *core.TypeDescriptor {
	for i := range types {
		if types[i].ID == id {
			return &types[i]
		}
	}
	return nil
}

// GetPrice returns the price of t in region. With data-center specific
// pricing enabled a matching region override wins over the base price.
// A nil type or empty region yields false.
func GetPrice(t *core.TypeDescriptor, region string, flags Flags) (core.Price, bool) {
	if t == nil || region == "" {
		return core.Price{}, false
	}
	if flags.DCSpecificPricing {
		for _, rp := range t.RegionPrices {
			if rp.ID == region {
				return core.Price{Monthly: rp.Monthly, Hourly: rp.Hourly}, true
			}
		}
	}
	return t.Price, true
}

// UnitPrice returns the monthly price of one node of typeID in region.
func UnitPrice(typeID, region string, types []core.TypeDescriptor, flags Flags) decimal.NullDecimal {
	if len(types) == 0 || typeID == "" || region == "" {
		return decimal.NullDecimal{}
	}
	price, ok := GetPrice(FindType(types, typeID), region, flags)
	if !ok {
		return decimal.NullDecimal{}
	}
	return price.Monthly
}

// PoolPrice returns count x unit, or an absent price when unit is absent.
func PoolPrice(count int, unit decimal.NullDecimal) decimal.NullDecimal {
	if !unit.Valid {
		return unit
	}
	return decimal.NewNullDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(count))))
}

// PricedPool is a node count with its (possibly absent) unit price.
type PricedPool struct {
	Count     int
	UnitPrice decimal.NullDecimal
}

// TotalPrice sums the pool prices, counting absent ones as zero, and adds
// addOn when it is present.
func TotalPrice(pools []PricedPool, addOn decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range pools {
		if pp := PoolPrice(p.Count, p.UnitPrice); pp.Valid {
			total = total.Add(pp.Decimal)
		}
	}
	if addOn.Valid {
		total = total.Add(addOn.Decimal)
	}
	return total
}

// MonthlyPriceOptions describes a group of identical nodes to price.
type MonthlyPriceOptions struct {
	Count  int
	Flags  Flags
	Region string
	Type   string
	Types  []core.TypeDescriptor
}

// KubernetesMonthlyPrice calculates the monthly price of a group of nodes
// based on region and type. The result is absent when it cannot be
// calculated.
func KubernetesMonthlyPrice(opts MonthlyPriceOptions) decimal.NullDecimal {
	return PoolPrice(opts.Count, UnitPrice(opts.Type, opts.Region, opts.Types, opts.Flags))
}

// TotalClusterPriceOptions describes a cluster to price.
type TotalClusterPriceOptions struct {
	Flags                 Flags
	HighAvailabilityPrice decimal.NullDecimal
	Pools                 []core.NodePool
	Region                string
	Types                 []core.TypeDescriptor
}

// TotalClusterPrice calculates the total monthly price of all pools in a
// cluster plus the high availability add-on when one is given.
func TotalClusterPrice(opts TotalClusterPriceOptions) decimal.Decimal {
	priced := make([]PricedPool, 0, len(opts.Pools))
	for _, p := range opts.Pools {
		priced = append(priced, PricedPool{
			Count:     p.Count,
			UnitPrice: UnitPrice(p.Type, opts.Region, opts.Types, opts.Flags),
		})
	}
	return TotalPrice(priced, opts.HighAvailabilityPrice)
}
