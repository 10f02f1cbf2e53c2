package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/arbor"
	"github.com/hupe1980/arbor/codec"
)

type trainCmdConfig struct {
	*rootCmdConfig
	data     string
	response string
	classify bool
	config   string
	trees    int
	output   string
	codec    string
	seed     int64
}

// trainOutput is the JSON document written by train.
type trainOutput struct {
	Response string   `json:"response"`
	Labels   []string `json:"labels,omitempty"`
	Rows     int      `json:"rows"`
	Seconds  float64  `json:"seconds"`
	arbor.ForestSummary
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a forest from CSV data",
		Long: `Train a forest from a CSV file with a header row. Every column other
than the response is a numeric predictor; empty, NA and ? fields are
missing. Files ending in .zst or .lz4 are decompressed on read, and the
output is compressed the same way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&config.data, "data", "d", "", "path to the input CSV (defaults to STDIN)")
	cmd.Flags().StringVarP(&config.response, "response", "r", "", "name of the response column (required)")
	cmd.Flags().BoolVar(&config.classify, "classify", false, "treat the response as category labels")
	cmd.Flags().StringVarP(&config.config, "config", "c", "", "path to a YAML file with training parameters")
	cmd.Flags().IntVarP(&config.trees, "trees", "n", 1, "number of trees, overrides the config file")
	cmd.Flags().StringVarP(&config.output, "output", "o", "", "path for the JSON summary (defaults to STDOUT)")
	cmd.Flags().StringVar(&config.codec, "codec", "go-json", "summary encoder: json or go-json")
	cmd.Flags().Int64Var(&config.seed, "seed", 0, "random seed, overrides the config file")
	return cmd
}

func (c *trainCmdConfig) run(cmd *cobra.Command) error {
	if c.response == "" {
		return errors.New("required response flag was not set")
	}
	cd, err := codec.Lookup(c.codec)
	if err != nil {
		return err
	}
	tc, err := loadTrainConfig(c.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("trees") {
		tc.Trees = c.trees
	}
	if cmd.Flags().Changed("seed") {
		tc.Seed = c.seed
	}

	ctx := cmd.Context()
	logger := c.logger()
	rc := tc.controller()
	opts, err := tc.options()
	if err != nil {
		return err
	}
	opts = append(opts,
		arbor.WithResourceController(rc),
		arbor.WithMetricsCollector(&progress{logger: logger, rc: rc, total: tc.Trees}),
	)
	if c.verbose {
		opts = append(opts, arbor.WithLogger(logger))
	}
	tr, err := arbor.New(opts...)
	if err != nil {
		return err
	}

	in, err := openInput(ctx, c.data, rc)
	if err != nil {
		return fmt.Errorf("opening data: %w", err)
	}
	ds, err := readDataset(in, c.response, c.classify)
	if cerr := in.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("reading data: %w", err)
	}
	lay, err := tr.NewLayout(ds.cols)
	if err != nil {
		return err
	}

	resp := arbor.Response{Y: ds.y}
	if c.classify {
		resp.Ctg, resp.NCtg = ds.ctg, len(ds.labels)
	}
	logger.Info("training started",
		"rows", ds.nRow(),
		"predictors", len(ds.names),
		"dense", lay.NDense(),
		"trees", tc.Trees,
	)

	start := time.Now()
	forest, err := tr.TrainForest(ctx, lay, resp, tc.Trees)
	if err != nil {
		return err
	}

	return writeOutput(c.output, cd, trainOutput{
		Response:      c.response,
		Labels:        ds.labels,
		Rows:          ds.nRow(),
		Seconds:       time.Since(start).Seconds(),
		ForestSummary: forest.Summary(ds.names),
	})
}
