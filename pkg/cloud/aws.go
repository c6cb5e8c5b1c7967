package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"
	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
)

// awsProvider implements Provider for AWS EC2-backed nodes.
type awsProvider struct{}

// NodeMetadata describes the instance named by an aws:///<zone>/<instance-id>
// provider ID.
func (p *awsProvider) NodeMetadata(ctx context.Context, id []string) (*Metadata, error) {
	if len(id) == 0 || id[len(id)-1] == "" {
		return nil, fmt.Errorf("invalid AWS provider ID %v", id)
	}
	instanceID := id[len(id)-1]

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	result, err := ec2.NewFromConfig(cfg).DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return nil, fmt.Errorf("describe instance %s: %s", instanceID, ae.ErrorCode())
		}
		return nil, fmt.Errorf("describe instance %s: %w", instanceID, err)
	}

	if len(result.Reservations) == 0 || len(result.Reservations[0].Instances) == 0 {
		return nil, fmt.Errorf("no instance information found for %s", instanceID)
	}

	instance := result.Reservations[0].Instances[0]
	md := &Metadata{
		InstanceType: string(instance.InstanceType),
		CapacityType: util.CapacityOnDemand,
	}
	if instance.InstanceLifecycle == "spot" {
		md.CapacityType = util.CapacitySpot
	}
	if instance.Placement != nil && instance.Placement.AvailabilityZone != nil {
		md.Region = util.RegionFromZone(*instance.Placement.AvailabilityZone)
	} else if len(id) > 1 {
		md.Region = util.RegionFromZone(id[len(id)-2])
	}

	for _, tag := range instance.Tags {
		if tag.Key == nil || tag.Value == nil {
			continue
		}
		switch *tag.Key {
		case "eks:nodegroup-name":
			md.NodePool = *tag.Value
		case "eks:compute-type":
			if *tag.Value == "fargate" {
				md.CapacityType = "FARGATE"
			}
		}
	}

	return md, nil
}

// nolint:gochecknoinits // registration-style init keeps provider wiring local to this file.
func init() {
	RegisterProvider(ProviderAWS, func() Provider { return &awsProvider{} })
}
