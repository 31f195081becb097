package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/tokens"
	"github.com/ppgranger/token-saver/internal/tracker"
)

// statsReport is the --json payload shape.
type statsReport struct {
	Session       tracker.SessionStats     `json:"session"`
	Lifetime      tracker.LifetimeStats    `json:"lifetime"`
	TopProcessors []tracker.ProcessorStats `json:"top_processors"`
}

func runStatsCommand(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "output as JSON")
	_ = fs.Parse(args)

	cfg := config.Load()
	t, err := tracker.OpenDefault(cfg, monitoring.Nop())
	if err != nil {
		printError(fmt.Sprintf("could not open savings database: %v", err))
		os.Exit(1)
	}
	defer t.Close()

	report := statsReport{
		Session:       t.SessionStats(""),
		Lifetime:      t.LifetimeStats(),
		TopProcessors: t.TopProcessors(5),
	}

	if *asJSON {
		out, err := json.Marshal(report)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	printStatsReport(report, tokens.NewEstimator(cfg.CharsPerToken))
}

func printStatsReport(report statsReport, est *tokens.Estimator) {
	rule := strings.Repeat("-", 40)

	fmt.Println(colorize(colorBold, "Token-Saver Statistics"))
	fmt.Println(strings.Repeat("=", 40))

	fmt.Println("\nSession")
	fmt.Println(rule)
	if report.Session.Commands == 0 {
		fmt.Println("  No compressions in this session.")
	} else {
		printStatsBlock(report.Session.Commands, report.Session.Original,
			report.Session.Compressed, report.Session.Saved, report.Session.Ratio, est)
	}

	fmt.Println("\nLifetime")
	fmt.Println(rule)
	if report.Lifetime.Commands == 0 {
		fmt.Println("  No compressions recorded yet.")
	} else {
		fmt.Printf("  Sessions:             %d\n", report.Lifetime.Sessions)
		printStatsBlock(report.Lifetime.Commands, report.Lifetime.Original,
			report.Lifetime.Compressed, report.Lifetime.Saved, report.Lifetime.Ratio, est)
	}

	if len(report.TopProcessors) > 0 {
		fmt.Println("\nTop Processors")
		fmt.Println(rule)
		for _, entry := range report.TopProcessors {
			saved := tokens.Format(est.FromChars(int(entry.Saved)))
			fmt.Printf("  %-20s %4d cmds, %s saved\n", entry.Processor, entry.Count, saved)
		}
	}
}

func printStatsBlock(commands int, original, compressed, saved int64, ratio float64, est *tokens.Estimator) {
	fmt.Printf("  Commands compressed:  %d\n", commands)
	fmt.Printf("  Original tokens:      %s\n", tokens.Format(est.FromChars(int(original))))
	fmt.Printf("  Compressed tokens:    %s\n", tokens.Format(est.FromChars(int(compressed))))
	fmt.Printf("  Saved:                %s (%s)\n",
		tokens.Format(est.FromChars(int(saved))),
		colorize(colorGreen, fmt.Sprintf("%.1f%%", ratio)))
}
