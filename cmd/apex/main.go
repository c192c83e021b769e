// Command apex runs a .apex program through the five-stage APEX
// pipeline simulator and prints the final architectural state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rlotlik1/apexsim/asm"
	"github.com/rlotlik1/apexsim/timing/pipeline"
	"github.com/rlotlik1/apexsim/timing/report"
	"github.com/rlotlik1/apexsim/timing/trace"
)

var (
	forwarding = flag.Bool("forwarding", false, "enable the EX/MEM forwarding network")
	configPath = flag.String("config", "", "path to a JSON run-configuration file")
	cycles     = flag.Int64("cycles", 0, "stop after this many cycles (0 = run to completion)")
	showTrace  = flag.Bool("trace", false, "print per-cycle stage contents")
	verbose    = flag.Bool("v", false, "verbose summary output")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: apex [options] <program.apex>\n\nOptions:\n")
		flag.PrintDefaults()
		return 1
	}
	programPath := flag.Arg(0)

	cfg := defaultRunConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadRunConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "apex: %v\n", err)
			return 1
		}
	}
	if *forwarding {
		cfg.Forwarding = true
	}
	if *cycles > 0 {
		cfg.CycleBudget = *cycles
	}

	program, err := asm.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apex: %v\n", err)
		return 1
	}

	opts := []pipeline.Option{
		pipeline.WithCycleBudget(cfg.CycleBudget),
		pipeline.WithHaltThreshold(cfg.HaltThreshold),
	}
	if cfg.Forwarding {
		opts = append(opts, pipeline.WithForwarding())
	}
	if *showTrace {
		opts = append(opts, pipeline.WithTraceSink(trace.NewTextSink(os.Stdout)))
	}

	p := pipeline.New(program, opts...)

	stats, err := p.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "apex: run aborted: %v\n", err)
		return 1
	}

	report.WriteState(os.Stdout, p.Registers(), p.Scoreboard(), p.DataMemory())
	if *verbose {
		report.WriteStats(os.Stdout, stats)
	}

	return 0
}
