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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/davidxarnold/cloudconsole/pkg/routes"
)

// NewRoutesCmd creates the routes subcommand.
func NewRoutesCmd(cc *ConsoleConfig) *cobra.Command {
	var (
		q             = routes.DefaultQuery()
		allNamespaces bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List load balancer routes and their rules",
		Long: `List the routes served by the cluster's Ingresses. Every Ingress is a route;
its paths and default backend are the route's rules.

Routes can be filtered by label, ordered by label or protocol and paged.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := q.Validate(); err != nil {
				return err
			}

			k8sClient, _, err := cc.Clients()
			if err != nil {
				return err
			}

			namespace := ""
			if !allNamespaces {
				if namespace, err = cc.Namespace(); err != nil {
					return err
				}
			}

			rs, err := fetchRoutes(cmd.Context(), k8sClient, namespace)
			if err != nil {
				return err
			}
			return renderRoutes(cmd.OutOrStdout(), routes.Apply(rs, q), viper.GetString("output"))
		},
	}

	cmd.Flags().StringVar(&q.Filter, "filter", "", "Only show routes whose label contains this text")
	cmd.Flags().StringVar(&q.OrderBy, "order-by", q.OrderBy, "Sort by: label, protocol")
	cmd.Flags().StringVar(&q.Order, "order", q.Order, "Sort direction: asc, desc")
	cmd.Flags().IntVar(&q.Page, "page", q.Page, "Page to show, starting at 1")
	cmd.Flags().IntVar(&q.PageSize, "page-size", q.PageSize, "Routes per page")
	cmd.Flags().IntSliceVar(&q.Configured, "route-id", nil, "Only show these route IDs")
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "List routes in all namespaces")

	return cmd
}
