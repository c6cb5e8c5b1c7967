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
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
)

// WatchCache provides cached cluster data using informers for real-time updates.
type WatchCache struct {
	mu sync.RWMutex

	nodes     []v1.Node
	pods      []v1.Pod
	ingresses []networkingv1.Ingress

	factory informers.SharedInformerFactory
	stopCh  chan struct{}
	stop    sync.Once

	// Change notification
	updateCh chan struct{}

	synced     bool
	lastUpdate time.Time
}

// NewWatchCache creates a new informer-based cache for nodes, pods and
// ingresses.
func NewWatchCache(k8sClient kubernetes.Interface, resyncPeriod time.Duration) *WatchCache {
	wc := &WatchCache{
		stopCh:   make(chan struct{}),
		updateCh: make(chan struct{}, 1), // Buffered to avoid blocking
	}

	wc.factory = informers.NewSharedInformerFactory(k8sClient, resyncPeriod)

	handler := cache.ResourceEventHandlerFuncs{
		AddFunc:    func(_ interface{}) { wc.notifyUpdate() },
		UpdateFunc: func(_, _ interface{}) { wc.notifyUpdate() },
		DeleteFunc: func(_ interface{}) { wc.notifyUpdate() },
	}
	_, _ = wc.factory.Core().V1().Nodes().Informer().AddEventHandler(handler)
	_, _ = wc.factory.Core().V1().Pods().Informer().AddEventHandler(handler)
	_, _ = wc.factory.Networking().V1().Ingresses().Informer().AddEventHandler(handler)

	return wc
}

// Start runs the informers and blocks until their caches have synced.
func (wc *WatchCache) Start() {
	wc.factory.Start(wc.stopCh)

	log.Debug("Waiting for informer caches to sync...")
	for informerType, ok := range wc.factory.WaitForCacheSync(wc.stopCh) {
		if !ok {
			log.Warnf("Failed to sync cache for: %v", informerType)
		}
	}
	log.Debug("Informer caches synced")

	wc.mu.Lock()
	wc.synced = true
	wc.mu.Unlock()
	wc.notifyUpdate()
}

// Stop stops the informers. It is safe to call more than once.
func (wc *WatchCache) Stop() {
	wc.stop.Do(func() { close(wc.stopCh) })
}

// Updates returns a channel that receives notifications when data changes.
func (wc *WatchCache) Updates() <-chan struct{} {
	return wc.updateCh
}

// Synced reports whether the initial list of every informer has completed.
func (wc *WatchCache) Synced() bool {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return wc.synced
}

// notifyUpdate refreshes the cached data and sends a non-blocking
// notification.
func (wc *WatchCache) notifyUpdate() {
	wc.refreshData()
	select {
	case wc.updateCh <- struct{}{}:
	default:
		// Channel full, update already pending
	}
}

// refreshData updates the cached data from informers.
func (wc *WatchCache) refreshData() {
	nodeList, err := wc.factory.Core().V1().Nodes().Lister().List(labels.Everything())
	if err != nil {
		log.Debugf("Failed to list nodes from cache: %v", err)
		return
	}
	podList, err := wc.factory.Core().V1().Pods().Lister().List(labels.Everything())
	if err != nil {
		log.Debugf("Failed to list pods from cache: %v", err)
		return
	}
	ingList, err := wc.factory.Networking().V1().Ingresses().Lister().List(labels.Everything())
	if err != nil {
		log.Debugf("Failed to list ingresses from cache: %v", err)
		return
	}

	nodes := make([]v1.Node, 0, len(nodeList))
	for _, n := range nodeList {
		nodes = append(nodes, *n)
	}
	pods := make([]v1.Pod, 0, len(podList))
	for _, p := range podList {
		pods = append(pods, *p)
	}
	ingresses := make([]networkingv1.Ingress, 0, len(ingList))
	for _, ing := range ingList {
		ingresses = append(ingresses, *ing)
	}

	wc.mu.Lock()
	wc.nodes, wc.pods, wc.ingresses = nodes, pods, ingresses
	wc.lastUpdate = time.Now()
	wc.mu.Unlock()
}

// GetNodes returns a copy of cached nodes.
func (wc *WatchCache) GetNodes() []v1.Node {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	result := make([]v1.Node, len(wc.nodes))
	copy(result, wc.nodes)
	return result
}

// GetPodsByNode returns non-terminated pods grouped by node name.
func (wc *WatchCache) GetPodsByNode() map[string][]v1.Pod {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return groupPodsByNode(wc.pods)
}

// GetIngresses returns a copy of cached ingresses, optionally limited to one
// namespace.
func (wc *WatchCache) GetIngresses(namespace string) []networkingv1.Ingress {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	result := make([]networkingv1.Ingress, 0, len(wc.ingresses))
	for _, ing := range wc.ingresses {
		if namespace == "" || ing.Namespace == namespace {
			result = append(result, ing)
		}
	}
	return result
}

// GetStats returns cache statistics.
func (wc *WatchCache) GetStats() (nodeCount, podCount int, lastUpdate time.Time) {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return len(wc.nodes), len(wc.pods), wc.lastUpdate
}
