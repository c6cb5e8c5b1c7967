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

// Package core contains domain types and aggregation logic for cloudconsole
// that are independent of any particular CLI or UI.
package core

import (
	"time"

	"github.com/shopspring/decimal"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Node status labels.
const (
	StatusReady    = "Ready"
	StatusNotReady = "Not Ready"
)

// NodeStats holds relevant node statistics including pool membership,
// resource allocation and usage.
type NodeStats struct {
	Status                  string             `json:",omitempty"`
	ProviderID              string             `json:",omitempty"`
	Region                  string             `json:",omitempty"`
	InstanceType            string             `json:",omitempty"`
	NodePool                string             `json:",omitempty"`
	CapacityType            string             `json:",omitempty"` // ON_DEMAND, SPOT, etc.
	NodeInfo                v1.NodeSystemInfo  `json:",omitempty"`
	AllocatableCPU          *resource.Quantity `json:",omitempty"`
	AllocatableMemory       *resource.Quantity `json:",omitempty"`
	AllocatedCPUrequests    resource.Quantity  `json:",omitempty"`
	AllocatedCPULimits      resource.Quantity  `json:",omitempty"`
	AllocatedMemoryRequests resource.Quantity  `json:",omitempty"`
	AllocatedMemoryLimits   resource.Quantity  `json:",omitempty"`
	UsageCPU                *resource.Quantity `json:",omitempty"`
	UsageMemory             *resource.Quantity `json:",omitempty"`
	CreationTime            time.Time          `json:",omitempty"`
	PodCount                int                `json:",omitempty"`
}

// NodeMap is a map of node names to their statistics.
type NodeMap map[string]*NodeStats

// Totals holds aggregate resource statistics across the entire cluster.
type Totals struct {
	TotalAllocatableCPU          *resource.Quantity `json:",omitempty"`
	TotalAllocatableMemory       *resource.Quantity `json:",omitempty"`
	TotalAllocatedCPUrequests    *resource.Quantity `json:",omitempty"`
	TotalAllocatedCPULimits      *resource.Quantity `json:",omitempty"`
	TotalAllocatedMemoryRequests *resource.Quantity `json:",omitempty"`
	TotalAllocatedMemoryLimits   *resource.Quantity `json:",omitempty"`
	TotalUsageCPU                *resource.Quantity `json:",omitempty"`
	TotalUsageMemory             *resource.Quantity `json:",omitempty"`
}

// NewTotals returns Totals with every quantity initialized to zero so
// callers can safely Add().
func NewTotals() Totals {
	return Totals{
		TotalAllocatableCPU:          resource.NewMilliQuantity(0, resource.DecimalSI),
		TotalAllocatableMemory:       resource.NewQuantity(0, resource.BinarySI),
		TotalAllocatedCPUrequests:    resource.NewMilliQuantity(0, resource.DecimalSI),
		TotalAllocatedCPULimits:      resource.NewMilliQuantity(0, resource.DecimalSI),
		TotalAllocatedMemoryRequests: resource.NewQuantity(0, resource.BinarySI),
		TotalAllocatedMemoryLimits:   resource.NewQuantity(0, resource.BinarySI),
		TotalUsageCPU:                resource.NewMilliQuantity(0, resource.DecimalSI),
		TotalUsageMemory:             resource.NewQuantity(0, resource.BinarySI),
	}
}

// Price is a pair of monthly and hourly amounts. Either may be absent.
type Price struct {
	Monthly decimal.NullDecimal `json:"monthly"`
	Hourly  decimal.NullDecimal `json:"hourly"`
}

// RegionPrice overrides a type's base price in a single region.
type RegionPrice struct {
	ID      string              `json:"id"`
	Monthly decimal.NullDecimal `json:"monthly"`
	Hourly  decimal.NullDecimal `json:"hourly"`
}

// TypeDescriptor identifies a purchasable compute/node type.
type TypeDescriptor struct {
	ID           string        `json:"id"`
	Label        string        `json:"label,omitempty"`
	Class        string        `json:"class,omitempty"`
	Price        Price         `json:"price"`
	RegionPrices []RegionPrice `json:"region_prices,omitempty"`
}

// NodePool is a group of identical compute instances.
type NodePool struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Region string `json:"region,omitempty"`
}

// PoolSummary is a node pool plus the summed resources of its Ready nodes.
type PoolSummary struct {
	NodePool
	Ready             int               `json:"ready"`
	AllocatableCPU    resource.Quantity `json:"allocatable_cpu"`
	AllocatableMemory resource.Quantity `json:"allocatable_memory"`
	UsageCPU          resource.Quantity `json:"usage_cpu"`
	UsageMemory       resource.Quantity `json:"usage_memory"`
}

// Snapshot is a complete view of cluster state at a point in time.
type Snapshot struct {
	Nodes  NodeMap
	Totals Totals
	Pools  []NodePool
	Region string
}

// NewSnapshot constructs a Snapshot from the provided node map and totals,
// deriving node pools and the cluster region from the nodes.
func NewSnapshot(nodes NodeMap, totals Totals) Snapshot {
	return Snapshot{
		Nodes:  nodes,
		Totals: totals,
		Pools:  GroupNodePools(nodes),
		Region: ClusterRegion(nodes),
	}
}
