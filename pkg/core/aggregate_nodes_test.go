package core

import (
	"testing"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsV1beta1api "k8s.io/metrics/pkg/apis/metrics/v1beta1"
)

func testNode(name, pool, typ, region string, ready bool) v1.Node {
	status := v1.ConditionTrue
	if !ready {
		status = v1.ConditionFalse
	}
	return v1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				"lke.linode.com/pool-id":           pool,
				"node.kubernetes.io/instance-type": typ,
				"topology.kubernetes.io/region":    region,
			},
		},
		Status: v1.NodeStatus{
			Conditions: []v1.NodeCondition{{
				Type:   v1.NodeReady,
				Status: status,
			}},
			Allocatable: v1.ResourceList{
				v1.ResourceCPU:    *resource.NewMilliQuantity(4000, resource.DecimalSI),
				v1.ResourceMemory: *resource.NewQuantity(8*1024*1024*1024, resource.BinarySI),
			},
		},
	}
}

func TestComputeNodeSnapshot_SingleReadyNode(t *testing.T) {
	node := testNode("node-1", "pool-a", "g6-standard-2", "us-east", true)

	pod := v1.Pod{
		Spec: v1.PodSpec{
			NodeName: "node-1",
			Containers: []v1.Container{{
				Resources: v1.ResourceRequirements{
					Requests: v1.ResourceList{
						v1.ResourceCPU:    *resource.NewMilliQuantity(500, resource.DecimalSI),
						v1.ResourceMemory: *resource.NewQuantity(512*1024*1024, resource.BinarySI),
					},
					Limits: v1.ResourceList{
						v1.ResourceCPU:    *resource.NewMilliQuantity(1000, resource.DecimalSI),
						v1.ResourceMemory: *resource.NewQuantity(1024*1024*1024, resource.BinarySI),
					},
				},
			}},
		},
	}

	metrics := map[string]*metricsV1beta1api.NodeMetrics{
		"node-1": {
			ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
			Usage: v1.ResourceList{
				v1.ResourceCPU:    *resource.NewMilliQuantity(250, resource.DecimalSI),
				v1.ResourceMemory: *resource.NewQuantity(256*1024*1024, resource.BinarySI),
			},
		},
	}

	nm, totals := ComputeNodeSnapshot([]v1.Node{node}, map[string][]v1.Pod{"node-1": {pod}}, metrics)

	stats := nm["node-1"]
	if stats == nil {
		t.Fatalf("expected stats for node-1, got nil")
	}
	if stats.Status != StatusReady {
		t.Errorf("expected status %q, got %q", StatusReady, stats.Status)
	}
	if stats.NodePool != "pool-a" || stats.InstanceType != "g6-standard-2" || stats.Region != "us-east" {
		t.Errorf("unexpected pool metadata: %+v", stats)
	}
	if stats.PodCount != 1 {
		t.Errorf("expected 1 pod, got %d", stats.PodCount)
	}
	if stats.AllocatedCPUrequests.MilliValue() != 500 {
		t.Errorf("expected CPU requests 500m, got %dm", stats.AllocatedCPUrequests.MilliValue())
	}
	if stats.AllocatedMemoryLimits.Value() != 1024*1024*1024 {
		t.Errorf("expected memory limits 1Gi, got %d", stats.AllocatedMemoryLimits.Value())
	}
	if stats.UsageCPU == nil || stats.UsageCPU.MilliValue() != 250 {
		t.Errorf("expected CPU usage 250m, got %v", stats.UsageCPU)
	}

	if totals.TotalAllocatableCPU.MilliValue() != 4000 {
		t.Errorf("expected total allocatable CPU 4000m, got %dm", totals.TotalAllocatableCPU.MilliValue())
	}
	if totals.TotalUsageMemory.Value() != 256*1024*1024 {
		t.Errorf("expected total memory usage 256Mi, got %d", totals.TotalUsageMemory.Value())
	}
}

func TestComputeNodeSnapshot_NotReadyExcludedFromTotals(t *testing.T) {
	node := testNode("node-notready", "pool-a", "g6-standard-2", "us-east", false)

	nm, totals := ComputeNodeSnapshot([]v1.Node{node}, nil, nil)

	stats := nm["node-notready"]
	if stats == nil {
		t.Fatalf("expected stats for node-notready, got nil")
	}
	if stats.Status != StatusNotReady {
		t.Errorf("expected status %q, got %q", StatusNotReady, stats.Status)
	}
	if stats.NodePool != "pool-a" {
		t.Errorf("expected NotReady node to keep pool membership, got %q", stats.NodePool)
	}
	if totals.TotalAllocatableCPU.MilliValue() != 0 {
		t.Errorf("expected total allocatable CPU 0, got %dm", totals.TotalAllocatableCPU.MilliValue())
	}
}

func TestGroupNodePools(t *testing.T) {
	nodes := []v1.Node{
		testNode("a-1", "pool-a", "g6-standard-2", "us-east", true),
		testNode("a-2", "pool-a", "g6-standard-2", "us-east", true),
		testNode("a-3", "pool-a", "g6-standard-2", "us-east", false),
		testNode("b-1", "pool-b", "g6-standard-4", "us-east", true),
		testNode("loose", "", "g6-dedicated-8", "us-east", true),
	}
	nm, _ := ComputeNodeSnapshot(nodes, nil, nil)

	pools := GroupNodePools(nm)
	want := []NodePool{
		{ID: "g6-dedicated-8", Type: "g6-dedicated-8", Count: 1, Region: "us-east"},
		{ID: "pool-a", Type: "g6-standard-2", Count: 3, Region: "us-east"},
		{ID: "pool-b", Type: "g6-standard-4", Count: 1, Region: "us-east"},
	}

	if len(pools) != len(want) {
		t.Fatalf("GroupNodePools() returned %d pools, want %d: %+v", len(pools), len(want), pools)
	}
	for i := range want {
		if pools[i] != want[i] {
			t.Errorf("pool[%d] = %+v, want %+v", i, pools[i], want[i])
		}
	}
}

func TestSummarizePools(t *testing.T) {
	nodes := []v1.Node{
		testNode("a-1", "pool-a", "g6-standard-2", "us-east", true),
		testNode("a-2", "pool-a", "g6-standard-2", "us-east", false),
	}
	usage := map[string]*metricsV1beta1api.NodeMetrics{
		"a-1": {Usage: v1.ResourceList{
			v1.ResourceCPU:    *resource.NewMilliQuantity(1500, resource.DecimalSI),
			v1.ResourceMemory: *resource.NewQuantity(1024*1024*1024, resource.BinarySI),
		}},
		"a-2": {Usage: v1.ResourceList{
			v1.ResourceCPU: *resource.NewMilliQuantity(700, resource.DecimalSI),
		}},
	}
	nm, _ := ComputeNodeSnapshot(nodes, nil, usage)

	sums := SummarizePools(nm)
	if len(sums) != 1 {
		t.Fatalf("SummarizePools() returned %d pools, want 1: %+v", len(sums), sums)
	}
	p := sums[0]
	if p.Count != 2 || p.Ready != 1 {
		t.Errorf("Count/Ready = %d/%d, want 2/1", p.Count, p.Ready)
	}
	if got := p.AllocatableCPU.MilliValue(); got != 4000 {
		t.Errorf("AllocatableCPU = %dm, want 4000m", got)
	}
	if got := p.UsageCPU.MilliValue(); got != 1500 {
		t.Errorf("UsageCPU = %dm, want 1500m (NotReady usage excluded)", got)
	}
	if got := p.UsageMemory.Value(); got != 1024*1024*1024 {
		t.Errorf("UsageMemory = %d, want 1Gi", got)
	}
}

func TestPoolID(t *testing.T) {
	tests := []struct {
		name  string
		stats NodeStats
		want  string
	}{
		{"pool label", NodeStats{NodePool: "p", InstanceType: "t"}, "p"},
		{"type fallback", NodeStats{InstanceType: "t"}, "t"},
		{"name fallback", NodeStats{}, "node-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PoolID("node-x", &tt.stats); got != tt.want {
				t.Errorf("PoolID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClusterRegion(t *testing.T) {
	tests := []struct {
		name string
		nm   NodeMap
		want string
	}{
		{"empty", NodeMap{}, ""},
		{"no labels", NodeMap{"n": {}}, ""},
		{"majority", NodeMap{
			"a": {Region: "us-east"},
			"b": {Region: "us-west"},
			"c": {Region: "us-west"},
		}, "us-west"},
		{"tie broken by name", NodeMap{
			"a": {Region: "us-west"},
			"b": {Region: "us-east"},
		}, "us-east"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClusterRegion(tt.nm); got != tt.want {
				t.Errorf("ClusterRegion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSnapshotDerivesPools(t *testing.T) {
	nm := NodeMap{
		"a": {NodePool: "p", InstanceType: "g6-standard-2", Region: "us-east"},
		"b": {NodePool: "p", InstanceType: "g6-standard-2", Region: "us-east"},
	}
	snap := NewSnapshot(nm, NewTotals())

	if snap.Region != "us-east" {
		t.Errorf("Snapshot.Region = %q, want %q", snap.Region, "us-east")
	}
	if len(snap.Pools) != 1 || snap.Pools[0].Count != 2 {
		t.Errorf("Snapshot.Pools = %+v, want one pool of 2", snap.Pools)
	}
}
