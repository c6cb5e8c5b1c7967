package cloud

import (
	"context"
	"fmt"
	"sort"
	"strings"

	container "cloud.google.com/go/container/apiv1"
	"cloud.google.com/go/container/apiv1/containerpb"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
)

// ListGKENodePools reads the node pools of a GKE cluster. parent has the form
// projects/<project>/locations/<location>/clusters/<cluster>. Node counts
// come from each pool's initial size across its zones.
func ListGKENodePools(ctx context.Context, parent string) ([]core.NodePool, error) {
	region, err := GKERegion(parent)
	if err != nil {
		return nil, err
	}

	c, err := container.NewClusterManagerClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GKE client: %w", err)
	}
	defer func() {
		_ = c.Close()
	}()

	resp, err := c.ListNodePools(ctx, &containerpb.ListNodePoolsRequest{Parent: parent})
	if err != nil {
		return nil, fmt.Errorf("list node pools for %s: %w", parent, err)
	}

	return gkePools(resp.GetNodePools(), region), nil
}

func gkePools(in []*containerpb.NodePool, region string) []core.NodePool {
	pools := make([]core.NodePool, 0, len(in))
	for _, np := range in {
		count := int(np.GetInitialNodeCount())
		// initial_node_count is per zone
		if zones := len(np.GetLocations()); zones > 1 {
			count *= zones
		}
		pools = append(pools, core.NodePool{
			ID:     np.GetName(),
			Type:   np.GetConfig().GetMachineType(),
			Count:  count,
			Region: region,
		})
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID < pools[j].ID })
	return pools
}

// GKERegion extracts the region from a cluster resource name. A zonal
// location such as us-central1-a maps to us-central1.
func GKERegion(parent string) (string, error) {
	parts := strings.Split(parent, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "locations" && parts[i+1] != "" {
			return util.RegionFromZone(parts[i+1]), nil
		}
	}
	return "", fmt.Errorf("cluster %q has no locations/<location> segment", parent)
}
