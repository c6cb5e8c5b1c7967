/*
Copyright 2020 David Arnold
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
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
	v "gitlab.com/davidxarnold/cloudconsole/version"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"

	// needed to authenticate with GCP
	_ "k8s.io/client-go/plugin/pkg/client/auth/gcp"
)

var cfgFile string

// ConsoleConfig holds the kubeconfig flags shared by all subcommands. The
// REST config is resolved lazily so offline commands work without a cluster.
type ConsoleConfig struct {
	configFlags *genericclioptions.ConfigFlags
	restConfig  *rest.Config
}

// NewConsoleConfig provides an instance of ConsoleConfig bound to the
// standard kubectl flags.
func NewConsoleConfig() *ConsoleConfig {
	return &ConsoleConfig{
		configFlags: genericclioptions.NewConfigFlags(true),
	}
}

// RESTConfig resolves the cluster connection from the kubeconfig flags.
func (cc *ConsoleConfig) RESTConfig() (*rest.Config, error) {
	if cc.restConfig != nil {
		return cc.restConfig, nil
	}
	rc, err := cc.configFlags.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("unable to load kubeconfig: %w", err)
	}
	cc.restConfig = rc
	return rc, nil
}

// Clients returns a Kubernetes clientset and a metrics clientset.
func (cc *ConsoleConfig) Clients() (*kubernetes.Clientset, *metricsclientset.Clientset, error) {
	rc, err := cc.RESTConfig()
	if err != nil {
		return nil, nil, err
	}
	k8sClient, err := kubernetes.NewForConfig(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	mc, err := metricsclientset.NewForConfig(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	return k8sClient, mc, nil
}

// Namespace returns the namespace selected by -n or the kubeconfig context.
func (cc *ConsoleConfig) Namespace() (string, error) {
	ns, _, err := cc.configFlags.ToRawKubeConfigLoader().Namespace()
	if err != nil {
		return "", fmt.Errorf("unable to determine namespace: %w", err)
	}
	return ns, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}

		// Search config in home directory with name ".cloudconsole" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".cloudconsole")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debugln("Using config file:", viper.ConfigFileUsed())
	}
}

// NewConsoleCmd provides the root cobra command.
func NewConsoleCmd() *cobra.Command {
	var (
		output         string
		theme          string
		compact        bool
		debug          bool
		cloudCacheTTL  time.Duration
		cloudCacheDisk bool
	)

	cc := NewConsoleConfig()

	cmd := &cobra.Command{
		Use:   "cloudconsole",
		Short: "Price, inspect and watch your cloud clusters from the terminal.",
		Long: `cloudconsole prices node pools of a cluster, lists load balancer routes
derived from Ingresses and shows a live dashboard of node pools and their cost.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.SetupLogger()
		},
	}

	cmd.Version = v.Version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.cloudconsole.yaml)")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", outputTxt,
		"Output format. One of: txt|pretty|json")
	cmd.PersistentFlags().StringVar(&theme, "theme", "default",
		"Color theme for the live view")
	cmd.PersistentFlags().BoolVar(&compact, "compact", false,
		"Compact tables without spacing rows")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging")
	cmd.PersistentFlags().DurationVar(&cloudCacheTTL, "cloud-cache-ttl", 30*time.Minute,
		"How long cloud provider node metadata is cached")
	cmd.PersistentFlags().BoolVar(&cloudCacheDisk, "cloud-cache-disk", true,
		"Persist cloud provider node metadata under ~/.cloudconsole")

	cc.configFlags.AddFlags(cmd.PersistentFlags())
	cobra.OnInitialize(initConfig)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("cloudconsole")

	for _, name := range []string{"output", "theme", "compact", "debug", "cloud-cache-ttl", "cloud-cache-disk"} {
		_ = viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}

	cmd.AddCommand(
		NewPriceCmd(cc),
		NewRoutesCmd(cc),
		NewLiveCmd(cc),
	)

	return cmd
}
