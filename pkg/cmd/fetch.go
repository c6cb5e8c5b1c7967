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

package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gitlab.com/davidxarnold/cloudconsole/pkg/cloud"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gitlab.com/davidxarnold/cloudconsole/pkg/routes"
	"golang.org/x/sync/errgroup"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
	metricsV1beta1api "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

const defaultMaxConcurrent = 10

// fetchNodeSnapshot lists nodes and their non-terminated pods and builds a
// snapshot. Node metrics are optional: a nil client or a metrics-server
// error leaves usage unset.
func fetchNodeSnapshot(
	ctx context.Context,
	k8sClient kubernetes.Interface,
	mc metricsclientset.Interface,
	selector string,
) ([]v1.Node, core.Snapshot, error) {
	nodeList, err := k8sClient.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, core.Snapshot{}, fmt.Errorf("error getting node list: %w", err)
	}
	if len(nodeList.Items) == 0 {
		return nil, core.Snapshot{}, fmt.Errorf("no nodes found")
	}

	podsByNode, err := fetchPodsByNode(ctx, k8sClient)
	if err != nil {
		return nil, core.Snapshot{}, err
	}

	nm, totals := core.ComputeNodeSnapshot(nodeList.Items, podsByNode, fetchNodeMetrics(ctx, mc))
	return nodeList.Items, core.NewSnapshot(nm, totals), nil
}

func fetchPodsByNode(ctx context.Context, k8sClient kubernetes.Interface) (map[string][]v1.Pod, error) {
	fieldSelector, err := fields.ParseSelector(
		"status.phase!=" + string(v1.PodSucceeded) + ",status.phase!=" + string(v1.PodFailed))
	if err != nil {
		return nil, err
	}

	podList, err := k8sClient.CoreV1().Pods("").List(ctx, metav1.ListOptions{FieldSelector: fieldSelector.String()})
	if err != nil {
		return nil, fmt.Errorf("error getting pod list: %w", err)
	}
	return groupPodsByNode(podList.Items), nil
}

// groupPodsByNode keeps scheduled, non-terminated pods.
func groupPodsByNode(pods []v1.Pod) map[string][]v1.Pod {
	out := make(map[string][]v1.Pod)
	for i := range pods {
		p := pods[i]
		if p.Spec.NodeName == "" || p.Status.Phase == v1.PodSucceeded || p.Status.Phase == v1.PodFailed {
			continue
		}
		out[p.Spec.NodeName] = append(out[p.Spec.NodeName], p)
	}
	return out
}

func fetchNodeMetrics(ctx context.Context, mc metricsclientset.Interface) map[string]*metricsV1beta1api.NodeMetrics {
	if mc == nil {
		return nil
	}
	list, err := mc.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		log.Debugf("node metrics unavailable (metrics-server running?): %v", err)
		return nil
	}
	out := make(map[string]*metricsV1beta1api.NodeMetrics, len(list.Items))
	for i := range list.Items {
		out[list.Items[i].Name] = &list.Items[i]
	}
	return out
}

// enrichFromCloud asks each node's cloud provider for the pool, type and
// region its labels left empty, and for its capacity type. Lookups run
// concurrently; a failed lookup only leaves the fields empty.
func enrichFromCloud(ctx context.Context, cc *cloud.Cache, nodes []v1.Node, nm core.NodeMap, maxConcurrent int) {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	type result struct {
		name string
		md   *cloud.Metadata
	}
	results := make(chan result, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i := range nodes {
		name := nodes[i].Name
		stats := nm[name]
		if stats == nil || stats.ProviderID == "" || !needsCloudInfo(stats) {
			continue
		}
		providerID := stats.ProviderID
		g.Go(func() error {
			md, err := cc.GetOrFetch(gctx, providerID)
			if err != nil {
				log.Debugf("cloud metadata for node %s: %v", name, err)
				return nil
			}
			if md != nil {
				results <- result{name, md}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for r := range results {
		applyCloudMetadata(nm[r.name], r.md)
	}
}

func needsCloudInfo(s *core.NodeStats) bool {
	return s.NodePool == "" || s.InstanceType == "" || s.Region == ""
}

func applyCloudMetadata(s *core.NodeStats, md *cloud.Metadata) {
	if s == nil || md == nil {
		return
	}
	if s.NodePool == "" {
		s.NodePool = md.NodePool
	}
	if s.InstanceType == "" {
		s.InstanceType = md.InstanceType
	}
	if s.Region == "" {
		s.Region = md.Region
	}
	// labels only default the capacity type, the provider knows better
	if md.CapacityType != "" {
		s.CapacityType = md.CapacityType
	}
}

// fetchRoutes lists Ingresses in namespace ("" for all) as routes.
func fetchRoutes(ctx context.Context, k8sClient kubernetes.Interface, namespace string) ([]routes.Route, error) {
	list, err := k8sClient.NetworkingV1().Ingresses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("error getting ingress list: %w", err)
	}
	return routes.FromIngresses(list.Items), nil
}
