package cloud

import (
	"context"
	"fmt"
	"path"

	compute "cloud.google.com/go/compute/apiv1"
	computepb "cloud.google.com/go/compute/apiv1/computepb"
	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
)

// gceProvider implements Provider for GCE-backed nodes.
type gceProvider struct{}

// NodeMetadata fetches the instance named by a gce://project/zone/instance
// provider ID.
func (p *gceProvider) NodeMetadata(ctx context.Context, id []string) (*Metadata, error) {
	if len(id) < 3 {
		return nil, fmt.Errorf("invalid GCE provider ID %v", id)
	}
	projectID, zone, instanceName := id[0], id[1], id[2]

	c, err := compute.NewInstancesRESTClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCE client: %w", err)
	}
	defer func() {
		_ = c.Close()
	}()

	instance, err := c.Get(ctx, &computepb.GetInstanceRequest{
		Project:  projectID,
		Zone:     zone,
		Instance: instanceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get GCE instance: %w", err)
	}

	md := &Metadata{
		CapacityType: "STANDARD",
		Region:       util.RegionFromZone(zone),
	}

	if instance.MachineType != nil {
		// machineType is a full resource URL
		md.InstanceType = path.Base(instance.GetMachineType())
	}

	for _, item := range instance.GetMetadata().GetItems() {
		if item.GetKey() == "gke-nodepool" {
			md.NodePool = item.GetValue()
		}
	}
	if md.NodePool == "" {
		md.NodePool = instance.GetLabels()["gke-nodepool"]
	}

	if instance.GetScheduling().GetProvisioningModel() == "SPOT" {
		md.CapacityType = util.CapacitySpot
	}

	return md, nil
}

// nolint:gochecknoinits // registration-style init keeps provider wiring local to this file.
func init() {
	RegisterProvider(ProviderGCE, func() Provider { return &gceProvider{} })
}
