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
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		name             string
		providerID       string
		expectedProvider string
		expectedParts    []string
	}{
		{
			name:             "AWS provider",
			providerID:       "aws:///us-west-2a/i-1234567890abcdef0",
			expectedProvider: "aws",
			expectedParts:    []string{"", "us-west-2a", "i-1234567890abcdef0"},
		},
		{
			name:             "GCE provider",
			providerID:       "gce://my-project/us-central1-a/my-instance",
			expectedProvider: "gce",
			expectedParts:    []string{"my-project", "us-central1-a", "my-instance"},
		},
		{
			name:             "Azure provider",
			providerID:       "azure:///subscriptions/sub-id/resourceGroups",
			expectedProvider: "azure",
			expectedParts:    []string{"", "subscriptions", "sub-id", "resourceGroups"},
		},
		{
			name:             "Simple provider",
			providerID:       "test://simple",
			expectedProvider: "test",
			expectedParts:    []string{"simple"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, parts := ParseProviderID(tt.providerID)

			if provider != tt.expectedProvider {
				t.Errorf("ParseProviderID(%q) got provider %q, want %q", tt.providerID, provider, tt.expectedProvider)
			}

			if len(parts) != len(tt.expectedParts) {
				t.Errorf("ParseProviderID(%q) got %d parts, want %d", tt.providerID, len(parts), len(tt.expectedParts))
			}

			for i, part := range parts {
				if part != tt.expectedParts[i] {
					t.Errorf("ParseProviderID(%q) part[%d] = %q, want %q", tt.providerID, i, part, tt.expectedParts[i])
				}
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name       string
		outputType string
		checkFunc  func(*testing.T, log.Formatter)
	}{
		{
			name:       "JSON formatter",
			outputType: "json",
			checkFunc: func(t *testing.T, formatter log.Formatter) {
				_, ok := formatter.(*log.JSONFormatter)
				if !ok {
					t.Errorf("Expected JSONFormatter, got %T", formatter)
				}
			},
		},
		{
			name:       "Text formatter default",
			outputType: "txt",
			checkFunc: func(t *testing.T, formatter log.Formatter) {
				_, ok := formatter.(*log.TextFormatter)
				if !ok {
					t.Errorf("Expected TextFormatter, got %T", formatter)
				}
			},
		},
		{
			name:       "Text formatter for unknown type",
			outputType: "unknown",
			checkFunc: func(t *testing.T, formatter log.Formatter) {
				_, ok := formatter.(*log.TextFormatter)
				if !ok {
					t.Errorf("Expected TextFormatter, got %T", formatter)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("output", tt.outputType)
			err := SetupLogger()
			if err != nil {
				t.Errorf("SetupLogger() returned error: %v", err)
			}

			tt.checkFunc(t, log.StandardLogger().Formatter)

			// Reset logger state
			viper.Set("output", "txt")
		})
	}
}

func TestParseProviderIDWithoutScheme(t *testing.T) {
	provider, parts := ParseProviderID("kind-worker")
	if provider != "kind-worker" {
		t.Errorf("ParseProviderID() provider = %q, want %q", provider, "kind-worker")
	}
	if parts != nil {
		t.Errorf("ParseProviderID() parts = %v, want nil", parts)
	}
}

func TestNodePoolFromLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   string
	}{
		{"LKE pool", map[string]string{"lke.linode.com/pool-id": "4821"}, "4821"},
		{"EKS node group", map[string]string{"eks.amazonaws.com/nodegroup": "workers"}, "workers"},
		{"GKE node pool", map[string]string{"cloud.google.com/gke-nodepool": "default-pool"}, "default-pool"},
		{"AKS agent pool", map[string]string{"agentpool": "nodepool1"}, "nodepool1"},
		{"empty value skipped", map[string]string{"lke.linode.com/pool-id": "", "agentpool": "np"}, "np"},
		{"no pool labels", map[string]string{"kubernetes.io/os": "linux"}, ""},
		{"nil labels", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NodePoolFromLabels(tt.labels); got != tt.want {
				t.Errorf("NodePoolFromLabels(%v) = %q, want %q", tt.labels, got, tt.want)
			}
		})
	}
}

func TestInstanceTypeAndRegionFromLabels(t *testing.T) {
	labels := map[string]string{
		"beta.kubernetes.io/instance-type":         "g6-standard-2",
		"failure-domain.beta.kubernetes.io/region": "us-east",
	}
	if got := InstanceTypeFromLabels(labels); got != "g6-standard-2" {
		t.Errorf("InstanceTypeFromLabels() = %q, want %q", got, "g6-standard-2")
	}
	if got := RegionFromLabels(labels); got != "us-east" {
		t.Errorf("RegionFromLabels() = %q, want %q", got, "us-east")
	}

	labels["node.kubernetes.io/instance-type"] = "g6-standard-4"
	labels["topology.kubernetes.io/region"] = "us-west"
	if got := InstanceTypeFromLabels(labels); got != "g6-standard-4" {
		t.Errorf("InstanceTypeFromLabels() = %q, want %q", got, "g6-standard-4")
	}
	if got := RegionFromLabels(labels); got != "us-west" {
		t.Errorf("RegionFromLabels() = %q, want %q", got, "us-west")
	}
}

func TestCapacityTypeFromLabels(t *testing.T) {
	tests := []struct {
		labels map[string]string
		want   string
	}{
		{map[string]string{"eks.amazonaws.com/capacityType": "spot"}, CapacitySpot},
		{map[string]string{"karpenter.sh/capacity-type": "on-demand"}, CapacityOnDemand},
		{map[string]string{"cloud.google.com/gke-spot": "true"}, CapacitySpot},
		{map[string]string{"cloud.google.com/gke-preemptible": "true"}, CapacitySpot},
		{map[string]string{}, CapacityOnDemand},
	}

	for _, tt := range tests {
		if got := CapacityTypeFromLabels(tt.labels); got != tt.want {
			t.Errorf("CapacityTypeFromLabels(%v) = %q, want %q", tt.labels, got, tt.want)
		}
	}
}

func TestRegionFromZone(t *testing.T) {
	tests := map[string]string{
		"us-west-2a":    "us-west-2",
		"us-central1-a": "us-central1",
		"eu-west-1c":    "eu-west-1",
		"us-east":       "us-east",
		"":              "",
	}
	for zone, want := range tests {
		if got := RegionFromZone(zone); got != want {
			t.Errorf("RegionFromZone(%q) = %q, want %q", zone, got, want)
		}
	}
}
