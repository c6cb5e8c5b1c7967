package cloud

// Metadata is what a cloud provider reports about one node, in a
// provider-agnostic form. It is used to fill pool and pricing fields that
// the node's labels leave empty.
type Metadata struct {
	InstanceType string
	Region       string
	NodePool     string // EKS node group, GKE node pool or similar construct
	CapacityType string // ON_DEMAND, SPOT, FARGATE, STANDARD, etc.
}

// IsZero reports whether m carries no information.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}
