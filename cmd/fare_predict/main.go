package main

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/hscells/taxifare/artifact"
	"github.com/hscells/taxifare/cmd"
	"github.com/hscells/taxifare/data"
	"github.com/hscells/taxifare/output"
)

type args struct {
	Input    string `arg:"required,positional" help:"csv or .arrow file of trips to predict the fare of"`
	Model    string `help:"path to the fitted model artifact" default:"models/final/model.gob"`
	Output   string `arg:"-o,--output" help:"write the submission to this file instead of stdout"`
	NRows    int    `help:"number of trips to read, all when not positive"`
	LibSVM   string `help:"also dump the composed features of every trip in LIBSVM format to this file"`
	Features string `help:"also write the composed features of every trip to this file as an Arrow IPC stream"`
	Debug    bool   `help:"print the stack of any error"`
}

func (args) Version() string {
	return "fare_predict 19.Oct.2026"
}

func (args) Description() string {
	return `predict the fare of every trip in a csv and write a kaggle style submission`
}

func main() {
	var args args
	arg.MustParse(&args)
	if err := run(args); err != nil {
		cmd.Fatal(err, args.Debug)
	}
}

func run(args args) error {
	p, err := artifact.Load(args.Model)
	if err != nil {
		return err
	}
	X, err := data.LoadFile(args.Input, args.NRows)
	if err != nil {
		return err
	}
	keys, err := X.Strings(data.Key)
	if err != nil {
		return err
	}
	fares, err := p.Predict(X)
	if err != nil {
		return err
	}
	log.Printf("predicted %d fares\n", len(fares))

	var w io.Writer = os.Stdout
	if len(args.Output) > 0 {
		f, err := os.Create(args.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := output.WriteSubmission(bw, keys, fares); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if len(args.LibSVM) > 0 {
		m, names, err := p.Features(X)
		if err != nil {
			return err
		}
		f, err := os.Create(args.LibSVM)
		if err != nil {
			return err
		}
		defer f.Close()
		labels := fares
		if X.Has(data.Fare) {
			if labels, err = X.Floats(data.Fare); err != nil {
				return err
			}
		}
		if err := output.WriteLibSVM(f, m, labels, keys...); err != nil {
			return err
		}
		log.Printf("wrote %d features per trip to %s\n", len(names), args.LibSVM)
	}

	if len(args.Features) > 0 {
		features, err := p.FeatureFrame(X)
		if err != nil {
			return err
		}
		f, err := os.Create(args.Features)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := data.WriteArrow(f, features); err != nil {
			return err
		}
		log.Printf("wrote %d feature columns to %s\n", features.Width(), args.Features)
	}
	return nil
}
