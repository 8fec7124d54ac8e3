package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cpusched/cpusched/sim"
	"github.com/cpusched/cpusched/sim/source"
)

var defaultsKind string

// defaultsCmd prints a config file pre-filled with the built-in defaults,
// ready to be edited and passed back through --config or --workload.
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default scheduler or workload config as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaults(os.Stdout, defaultsKind); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// writeDefaults renders the default config of the given kind ("scheduler" or "workload").
func writeDefaults(w io.Writer, kind string) error {
	var doc any
	switch kind {
	case "scheduler":
		doc = sim.NewSchedulerConfig(policyName)
	case "workload":
		gen := source.DefaultGeneratorConfig(clientID)
		doc = gen
	default:
		return fmt.Errorf("unknown defaults kind %q (valid: scheduler, workload)", kind)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func init() {
	defaultsCmd.Flags().StringVar(&defaultsKind, "kind", "scheduler", "Config to print (scheduler, workload)")
	defaultsCmd.Flags().StringVar(&policyName, "sched", sim.PolicyRR, "Policy whose scheduler defaults are printed")
	defaultsCmd.Flags().StringVar(&clientID, "client-id", "cpusched", "Client identifier written into the workload config")

	rootCmd.AddCommand(defaultsCmd)
}
