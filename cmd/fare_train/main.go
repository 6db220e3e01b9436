package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/hscells/taxifare"
	"github.com/hscells/taxifare/cmd"
	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/learning"
	"github.com/hscells/taxifare/output"
	"github.com/hscells/taxifare/pipeline"
)

type args struct {
	Config string   `arg:"-c,--config" help:"path to a .properties or .yaml run configuration"`
	Set    []string `arg:"-s,--set,separate" help:"override a configuration option, as key=value"`
	Tune   bool     `help:"grid search the hyperparameters of the estimator instead of training once"`
	Trials int      `help:"maximum number of trials when tuning"`
	Report string   `help:"write the evaluation report to this file instead of stdout"`
	Format string   `help:"format of the evaluation report or trial table (json or csv)" default:"json"`
	Debug  bool     `help:"print the stack of any error"`
}

func (args) Version() string {
	return "fare_train 19.Oct.2026"
}

func (args) Description() string {
	return `train, evaluate and save a taxi fare model`
}

func main() {
	var args args
	arg.MustParse(&args)

	cfg, err := cmd.Configure(args.Config, args.Set)
	if err != nil {
		cmd.Fatal(err, args.Debug)
	}
	formatter, err := output.Format(args.Format)
	if err != nil {
		cmd.Fatal(err, args.Debug)
	}
	table, err := output.MeasurementFormat(args.Format)
	if err != nil {
		cmd.Fatal(err, args.Debug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if args.Tune {
		if err := tune(ctx, cfg, args.Trials, table, args.Report); err != nil {
			cmd.Fatal(err, args.Debug)
		}
		return
	}

	c := make(chan pipeline.Result)
	go taxifare.Execute(ctx, cfg, taxifare.Storage(cfg), c)

	evaluations := make(map[string]map[string]float64)
	for result := range c {
		switch result.Type {
		case pipeline.Measurement:
			for k, v := range result.Measurements {
				log.Printf("%s: %v\n", k, v)
			}
		case pipeline.Evaluation:
			evaluations[result.Split] = result.Evaluations
			log.Printf("rmse %s: %v\n", result.Split, result.Evaluations["rmse"])
		case pipeline.Artifact:
			log.Printf("run %s saved to %s\n", result.RunID, result.Path)
		case pipeline.Error:
			cmd.Fatal(result.Error, args.Debug)
		case pipeline.Done:
			log.Println("done!")
		}
	}

	s, err := formatter(evaluations)
	if err != nil {
		cmd.Fatal(err, args.Debug)
	}
	if err := write(args.Report, s); err != nil {
		cmd.Fatal(err, args.Debug)
	}
}

func tune(ctx context.Context, cfg config.Run, trials int, formatter output.MeasurementFormatter, report string) error {
	batch, err := taxifare.Prepare(ctx, cfg, taxifare.Storage(cfg))
	if err != nil {
		return err
	}
	_, space, err := learning.Select(cfg.Estimator, nil)
	if err != nil {
		return err
	}
	log.Printf("searching %d points of the %s search space\n", len(taxifare.Grid(space)), cfg.Estimator)

	results, err := taxifare.GridSearch(batch.X, batch.Y, cfg, space, trials)
	if err != nil {
		return err
	}

	table := taxifare.TrialTable(results, space)
	s, err := formatter(table)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		log.Printf("best: %s\n", table.Rows[0].Run)
	}
	return write(report, s)
}

func write(path, s string) error {
	if len(path) == 0 {
		fmt.Println(s)
		return nil
	}
	return ioutil.WriteFile(path, []byte(s), 0644)
}
