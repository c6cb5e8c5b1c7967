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

package util

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Capacity types reported for nodes.
const (
	CapacityOnDemand = "ON_DEMAND"
	CapacitySpot     = "SPOT"
)

// SetupLogger sets configuration for the default logger
func SetupLogger() (err error) {
	var (
		lf = strings.ToLower(viper.GetString("output"))
	)

	// Set log format
	switch lf {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{
			DisableLevelTruncation: true,
		})
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// ParseProviderID returns the cloud provider and associated info
func ParseProviderID(pi string) (cp string, id []string) {
	s := strings.SplitN(pi, ":", 2)
	if len(s) < 2 {
		return s[0], nil
	}
	return s[0], strings.Split(strings.TrimPrefix(s[1], "//"), "/")
}

// NodePoolFromLabels extracts the node group/pool name from node labels.
func NodePoolFromLabels(labels map[string]string) string {
	for _, key := range []string{
		"lke.linode.com/pool-id",
		"eks.amazonaws.com/nodegroup",
		"cloud.google.com/gke-nodepool",
		"agentpool",
		"kops.k8s.io/instancegroup",
		"karpenter.sh/nodepool",
	} {
		if v, ok := labels[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// InstanceTypeFromLabels returns the well-known instance type label value.
func InstanceTypeFromLabels(labels map[string]string) string {
	if t := labels["node.kubernetes.io/instance-type"]; t != "" {
		return t
	}
	return labels["beta.kubernetes.io/instance-type"]
}

// RegionFromLabels returns the well-known topology region label value.
func RegionFromLabels(labels map[string]string) string {
	if r := labels["topology.kubernetes.io/region"]; r != "" {
		return r
	}
	return labels["failure-domain.beta.kubernetes.io/region"]
}

// CapacityTypeFromLabels extracts capacity type from node labels.
func CapacityTypeFromLabels(labels map[string]string) string {
	// EKS capacity type
	if ct, ok := labels["eks.amazonaws.com/capacityType"]; ok {
		return strings.ToUpper(ct)
	}
	// karpenter capacity type
	if ct, ok := labels["karpenter.sh/capacity-type"]; ok {
		return strings.ToUpper(strings.ReplaceAll(ct, "-", "_"))
	}
	// GKE spot, or preemptible on older clusters
	if labels["cloud.google.com/gke-spot"] == "true" || labels["cloud.google.com/gke-preemptible"] == "true" {
		return CapacitySpot
	}
	return CapacityOnDemand
}

// RegionFromZone strips the zone suffix from an AWS or GCE zone name,
// e.g. us-west-2a -> us-west-2 and us-central1-a -> us-central1.
func RegionFromZone(zone string) string {
	if zone == "" {
		return ""
	}
	if i := strings.LastIndex(zone, "-"); i > 0 && len(zone)-i == 2 {
		return zone[:i]
	}
	n := len(zone)
	if n >= 2 && zone[n-1] >= 'a' && zone[n-1] <= 'z' && zone[n-2] >= '0' && zone[n-2] <= '9' {
		return zone[:n-1]
	}
	return zone
}
