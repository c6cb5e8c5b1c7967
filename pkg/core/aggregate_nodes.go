/*
Package core provides domain types and aggregation logic for cloudconsole
that are independent of any particular CLI or UI.
*/

package core

import (
	"sort"

	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
	v1 "k8s.io/api/core/v1"
	resourcehelper "k8s.io/kubectl/pkg/util/resource"
	metricsV1beta1api "k8s.io/metrics/pkg/apis/metrics/v1beta1"
)

// ComputeNodeSnapshot builds a NodeMap and Totals from the provided
// Kubernetes objects. It does not perform any API calls; callers are
// responsible for fetching Nodes, Pods, and NodeMetrics. Missing metrics
// leave usage unset.
func ComputeNodeSnapshot(
	nodes []v1.Node,
	podsByNode map[string][]v1.Pod,
	nodeMetrics map[string]*metricsV1beta1api.NodeMetrics,
) (NodeMap, Totals) {
	totals := NewTotals()
	nm := make(NodeMap, len(nodes))

	for i := range nodes {
		node := &nodes[i]

		stats := &NodeStats{
			Status:       nodeStatus(node),
			ProviderID:   node.Spec.ProviderID,
			Region:       util.RegionFromLabels(node.Labels),
			InstanceType: util.InstanceTypeFromLabels(node.Labels),
			NodePool:     util.NodePoolFromLabels(node.Labels),
			CapacityType: util.CapacityTypeFromLabels(node.Labels),
			NodeInfo:     node.Status.NodeInfo,
			CreationTime: node.CreationTimestamp.Time,
		}
		nm[node.Name] = stats

		// NotReady nodes keep their pool membership but stay out of totals.
		if stats.Status != StatusReady {
			continue
		}

		if cpu := node.Status.Allocatable.Cpu(); cpu != nil {
			q := cpu.DeepCopy()
			stats.AllocatableCPU = &q
			totals.TotalAllocatableCPU.Add(q)
		}
		if mem := node.Status.Allocatable.Memory(); mem != nil {
			q := mem.DeepCopy()
			stats.AllocatableMemory = &q
			totals.TotalAllocatableMemory.Add(q)
		}

		pods := podsByNode[node.Name]
		stats.PodCount = len(pods)
		reqs, limits := podsTotalRequestsAndLimits(pods)
		stats.AllocatedCPUrequests = reqs[v1.ResourceCPU]
		stats.AllocatedCPULimits = limits[v1.ResourceCPU]
		stats.AllocatedMemoryRequests = reqs[v1.ResourceMemory]
		stats.AllocatedMemoryLimits = limits[v1.ResourceMemory]

		totals.TotalAllocatedCPUrequests.Add(stats.AllocatedCPUrequests)
		totals.TotalAllocatedCPULimits.Add(stats.AllocatedCPULimits)
		totals.TotalAllocatedMemoryRequests.Add(stats.AllocatedMemoryRequests)
		totals.TotalAllocatedMemoryLimits.Add(stats.AllocatedMemoryLimits)

		if m := nodeMetrics[node.Name]; m != nil {
			if cpuQty, ok := m.Usage[v1.ResourceCPU]; ok {
				q := cpuQty.DeepCopy()
				stats.UsageCPU = &q
				totals.TotalUsageCPU.Add(q)
			}
			if memQty, ok := m.Usage[v1.ResourceMemory]; ok {
				q := memQty.DeepCopy()
				stats.UsageMemory = &q
				totals.TotalUsageMemory.Add(q)
			}
		}
	}

	return nm, totals
}

func nodeStatus(node *v1.Node) string {
	for j := range node.Status.Conditions {
		c := node.Status.Conditions[j]
		if c.Type == v1.NodeReady && c.Status == v1.ConditionTrue {
			return StatusReady
		}
	}
	return StatusNotReady
}

// Based on: https://github.com/kubernetes/kubernetes/pkg/kubectl/describe/versioned/describe.go#L3223
func podsTotalRequestsAndLimits(pods []v1.Pod) (reqs, limits v1.ResourceList) {
	reqs, limits = v1.ResourceList{}, v1.ResourceList{}
	for i := range pods {
		podReqs, podLimits := resourcehelper.PodRequestsAndLimits(&pods[i])
		addResourceList(reqs, podReqs)
		addResourceList(limits, podLimits)
	}
	return reqs, limits
}

func addResourceList(into, from v1.ResourceList) {
	for name, qty := range from {
		if value, ok := into[name]; ok {
			value.Add(qty)
			into[name] = value
			continue
		}
		into[name] = qty.DeepCopy()
	}
}

// SummarizePools groups nodes per (pool, instance type). Nodes that are not
// Ready are still billed and therefore counted, but only Ready nodes add to
// the resource figures. The result is sorted by pool ID then type.
func SummarizePools(nm NodeMap) []PoolSummary {
	type poolKey struct{ pool, typ string }
	sums := make(map[poolKey]*PoolSummary)

	for name, stats := range nm {
		if stats == nil {
			continue
		}
		id := PoolID(name, stats)
		k := poolKey{id, stats.InstanceType}
		p, ok := sums[k]
		if !ok {
			p = &PoolSummary{NodePool: NodePool{ID: id, Type: stats.InstanceType, Region: stats.Region}}
			sums[k] = p
		}
		p.Count++

		if stats.Status != StatusReady {
			continue
		}
		p.Ready++
		if stats.AllocatableCPU != nil {
			p.AllocatableCPU.Add(*stats.AllocatableCPU)
		}
		if stats.AllocatableMemory != nil {
			p.AllocatableMemory.Add(*stats.AllocatableMemory)
		}
		if stats.UsageCPU != nil {
			p.UsageCPU.Add(*stats.UsageCPU)
		}
		if stats.UsageMemory != nil {
			p.UsageMemory.Add(*stats.UsageMemory)
		}
	}

	out := make([]PoolSummary, 0, len(sums))
	for _, p := range sums {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// GroupNodePools is SummarizePools without the resource figures.
func GroupNodePools(nm NodeMap) []NodePool {
	sums := SummarizePools(nm)
	pools := make([]NodePool, len(sums))
	for i := range sums {
		pools[i] = sums[i].NodePool
	}
	return pools
}

// PoolID names the pool a node is billed under. Unpooled nodes are grouped
// by instance type so they still get priced, and by node name as a last
// resort.
func PoolID(name string, stats *NodeStats) string {
	switch {
	case stats.NodePool != "":
		return stats.NodePool
	case stats.InstanceType != "":
		return stats.InstanceType
	}
	return name
}

// ClusterRegion returns the most common node region, breaking ties by name.
// It returns "" when no node carries a region label.
func ClusterRegion(nm NodeMap) string {
	seen := make(map[string]int)
	for _, stats := range nm {
		if stats != nil && stats.Region != "" {
			seen[stats.Region]++
		}
	}

	best, bestCount := "", 0
	for region, n := range seen {
		if n > bestCount || (n == bestCount && region < best) {
			best, bestCount = region, n
		}
	}
	return best
}
