package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/uluyol/heyp-qos-downgrade/pkg/config"
	"github.com/uluyol/heyp-qos-downgrade/pkg/downgrade"
	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/metrics"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Args:  cobra.NoArgs,
	Short: "Pick LOPRI children for one aggregate snapshot",
	Long:  `Loads a YAML aggregate snapshot and prints which children it would downgrade to LOPRI.`,
	RunE:  runDecide,
}

func init() {
	decideCmd.Flags().String("input", "", "path to aggregate snapshot YAML file (required)")
	decideCmd.Flags().Float64("want-frac-lopri", 0, "target fraction of demand to run at LOPRI")
	_ = decideCmd.MarkFlagRequired("input")
}

// childSnapshot is the YAML-decodable shape of one flow.Info.
type childSnapshot struct {
	SrcDC              string `yaml:"src_dc"`
	DstDC              string `yaml:"dst_dc"`
	Job                string `yaml:"job"`
	HostID             uint64 `yaml:"host_id"`
	PredictedDemandBps int64  `yaml:"predicted_demand_bps"`
	EWMAUsageBps       int64  `yaml:"ewma_usage_bps"`
	CurrentlyLOPRI     bool   `yaml:"currently_lopri"`
}

func (c childSnapshot) toFlowInfo() flow.Info {
	return flow.Info{
		Key: flow.Key{
			SrcDC:  c.SrcDC,
			DstDC:  c.DstDC,
			Job:    c.Job,
			HostID: c.HostID,
		},
		PredictedDemandBps: c.PredictedDemandBps,
		EWMAUsageBps:       c.EWMAUsageBps,
		CurrentlyLOPRI:     c.CurrentlyLOPRI,
	}
}

// aggSnapshot is the YAML-decodable shape of one flow.AggInfo.
type aggSnapshot struct {
	Parent   childSnapshot   `yaml:"parent"`
	Children []childSnapshot `yaml:"children"`
}

func volumeSourceFromString(s string) (flow.Source, error) {
	switch s {
	case "predicted_demand":
		return flow.SourcePredictedDemand, nil
	case "usage":
		return flow.SourceUsage, nil
	default:
		return 0, fmt.Errorf("unknown volume source %q", s)
	}
}

func selectorTypeFromString(s string) (downgrade.SelectorType, error) {
	switch s {
	case "hashing":
		return downgrade.SelectorHashing, nil
	case "largest-first":
		return downgrade.SelectorLargestFirst, nil
	case "heyp-sigcomm-20":
		return downgrade.SelectorSigcomm20, nil
	case "knapsack":
		return downgrade.SelectorKnapsack, nil
	default:
		return 0, fmt.Errorf("unknown selector type %q", s)
	}
}

func runDecide(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	wantFracLOPRI, _ := cmd.Flags().GetFloat64("want-frac-lopri")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input snapshot: %w", err)
	}
	var snap aggSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse input snapshot: %w", err)
	}

	children := make([]flow.Info, len(snap.Children))
	for i, c := range snap.Children {
		children[i] = c.toFlowInfo()
	}
	aggInfo := flow.AggInfo{Parent: snap.Parent.toFlowInfo(), Children: children}

	volumeSource, err := volumeSourceFromString(cfg.Downgrade.VolumeSource)
	if err != nil {
		return err
	}
	selectorType, err := selectorTypeFromString(cfg.Downgrade.SelectorType)
	if err != nil {
		return err
	}

	dispatcher := downgrade.NewDispatcher(downgrade.Config{
		Type:              selectorType,
		VolumeSource:      volumeSource,
		DowngradeJobs:     cfg.Downgrade.DowngradeJobs,
		KnapsackTimeLimit: cfg.Downgrade.KnapsackTimeLimit,
	}, logger)

	lopri := dispatcher.PickLOPRIChildren(aggInfo, wantFracLOPRI)

	if cfg.Metrics.Enabled {
		recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
		recorder.RecordSelection(cfg.Downgrade.SelectorType, nil, lopri)
	}

	var lopriCount int
	for i, isLOPRI := range lopri {
		status := "HIPRI"
		if isLOPRI {
			status = "LOPRI"
			lopriCount++
		}
		fmt.Printf("%-8s host=%d job=%q demand=%d\n", status, children[i].Key.HostID, children[i].Key.Job, children[i].PredictedDemandBps)
	}
	fmt.Printf("\n%d/%d children assigned to LOPRI\n", lopriCount, len(children))

	return nil
}
