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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/davidxarnold/cloudconsole/pkg/cloud"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gitlab.com/davidxarnold/cloudconsole/pkg/pricing"
)

var errNoRegion = errors.New("no region: pass --region or label nodes with topology.kubernetes.io/region")

// NewPriceCmd creates the price subcommand.
func NewPriceCmd(cc *ConsoleConfig) *cobra.Command {
	var (
		pools         []string
		gkeCluster    string
		selector      string
		ha            bool
		cloudInfo     bool
		maxConcurrent int
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Estimate the monthly price of a cluster's node pools",
		Long: `Estimate the monthly price of a cluster.

Node pools are taken from, in order of preference:
  - --pool flags, e.g. --pool g6-standard-2=3 --pool workers:g6-standard-4=1 (no cluster needed)
  - --gke-cluster projects/<p>/locations/<l>/clusters/<c> (GKE API)
  - the nodes of the current kubeconfig context, grouped by pool and instance type labels

Prices come from --price-file (YAML or JSON) or the built-in table. Unknown
types are listed but add nothing to the total.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadPriceTable(viper.GetString("price-file"))
			if err != nil {
				return err
			}

			var (
				nodePools []core.NodePool
				detected  string
			)
			switch {
			case len(pools) > 0:
				nodePools, err = parsePoolSpecs(pools)
			case gkeCluster != "":
				nodePools, detected, err = gkePools(cmd.Context(), gkeCluster)
			default:
				nodePools, detected, err = clusterPools(cmd.Context(), cc, selector, cloudInfo, maxConcurrent)
			}
			if err != nil {
				return err
			}

			region := viper.GetString("region")
			if region == "" {
				region = detected
			}
			if region == "" {
				return errNoRegion
			}

			flags := pricing.Flags{DCSpecificPricing: viper.GetBool("dc-specific-pricing")}
			// --ha-price on the command line implies --ha
			enabled := ha || cmd.Flags().Changed("ha-price")
			haPrice, err := highAvailabilityPrice(table, region, flags, enabled, viper.GetString("ha-price"))
			if err != nil {
				return err
			}

			q := pricing.NewQuote(pricing.TotalClusterPriceOptions{
				Flags:                 flags,
				HighAvailabilityPrice: haPrice,
				Pools:                 nodePools,
				Region:                region,
				Types:                 table.Types,
			})
			for _, id := range q.Unpriced {
				log.Warnf("pool %s has no price in region %s and is not counted", id, region)
			}

			return renderQuote(cmd.OutOrStdout(), q, viper.GetString("output"))
		},
	}

	cmd.Flags().StringArrayVar(&pools, "pool", nil,
		"Node pool as [pool:]type=count; repeatable. Skips the cluster lookup.")
	cmd.Flags().StringVar(&gkeCluster, "gke-cluster", "",
		"GKE cluster resource name to read node pools from")
	cmd.Flags().StringVarP(&selector, "selector", "l", "",
		"Node label selector (e.g. -l key1=value1,key2=value2)")
	cmd.Flags().String("region", "", "Region to price in (default: the region most nodes are labelled with)")
	cmd.Flags().BoolVar(&ha, "ha", false, "Add the high availability control plane price")
	cmd.Flags().String("ha-price", "", "Monthly high availability price, overriding the price table")
	cmd.Flags().Bool("dc-specific-pricing", false, "Use region specific prices where the price table has them")
	cmd.Flags().String("price-file", "", "YAML or JSON price table (default: built-in)")
	cmd.Flags().BoolVarP(&cloudInfo, "cloud-info", "c", false,
		"Ask the cloud provider for pool, type and region of nodes whose labels lack them")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", defaultMaxConcurrent,
		"Maximum concurrent cloud provider requests")

	return cmd
}

func loadPriceTable(path string) (*pricing.Table, error) {
	if path == "" {
		return pricing.DefaultTable()
	}
	log.Debugf("loading price table from %s", path)
	return pricing.LoadTable(path)
}

// parsePoolSpecs parses --pool values of the form [pool:]type=count.
func parsePoolSpecs(specs []string) ([]core.NodePool, error) {
	pools := make([]core.NodePool, 0, len(specs))
	for _, spec := range specs {
		p, err := parsePoolSpec(spec)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, nil
}

func parsePoolSpec(spec string) (core.NodePool, error) {
	typ, count, ok := strings.Cut(spec, "=")
	if !ok {
		return core.NodePool{}, fmt.Errorf("invalid pool %q: want [pool:]type=count", spec)
	}
	id := ""
	if before, after, found := strings.Cut(typ, ":"); found {
		id, typ = before, after
	}
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return core.NodePool{}, fmt.Errorf("invalid pool %q: empty type", spec)
	}
	if id == "" {
		id = typ
	}

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n < 0 {
		return core.NodePool{}, fmt.Errorf("invalid pool %q: count must be a non-negative integer", spec)
	}
	return core.NodePool{ID: id, Type: typ, Count: n}, nil
}

func gkePools(ctx context.Context, parent string) ([]core.NodePool, string, error) {
	pools, err := cloud.ListGKENodePools(ctx, parent)
	if err != nil {
		return nil, "", err
	}
	region, _ := cloud.GKERegion(parent)
	return pools, region, nil
}

func clusterPools(
	ctx context.Context,
	cc *ConsoleConfig,
	selector string,
	cloudInfo bool,
	maxConcurrent int,
) ([]core.NodePool, string, error) {
	k8sClient, mc, err := cc.Clients()
	if err != nil {
		return nil, "", err
	}

	nodes, snap, err := fetchNodeSnapshot(ctx, k8sClient, mc, selector)
	if err != nil {
		return nil, "", err
	}
	log.WithFields(log.Fields{
		"Host":  cc.restConfig.Host,
		"Pools": len(snap.Pools),
	}).Debugf("There are %d node(s) in the cluster", len(nodes))

	if cloudInfo {
		cache := cloud.NewCache(viper.GetDuration("cloud-cache-ttl"), viper.GetBool("cloud-cache-disk"))
		enrichFromCloud(ctx, cache, nodes, snap.Nodes, maxConcurrent)
		snap = core.NewSnapshot(snap.Nodes, snap.Totals)
	}
	return snap.Pools, snap.Region, nil
}

// highAvailabilityPrice returns the add-on to price, if any. An explicit
// price wins over the table.
func highAvailabilityPrice(
	table *pricing.Table,
	region string,
	flags pricing.Flags,
	enabled bool,
	override string,
) (decimal.NullDecimal, error) {
	if !enabled {
		return decimal.NullDecimal{}, nil
	}
	if override != "" {
		d, err := decimal.NewFromString(override)
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("invalid --ha-price %q: %w", override, err)
		}
		return decimal.NewNullDecimal(d), nil
	}
	price := table.HighAvailabilityPrice(region, flags)
	if !price.Valid {
		log.Warnf("no high availability price for region %s", region)
	}
	return price, nil
}
