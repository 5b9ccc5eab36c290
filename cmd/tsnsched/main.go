// SPDX-License-Identifier: MIT
// Command tsnsched reads a network XML description and a traffic set,
// synthesizes a time-triggered transmission schedule, and writes the
// schedule XML back out (spec §6). Exit codes follow spec_full §5.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/FPozo/tsnsched/constraints"
	"github.com/FPozo/tsnsched/schederr"
	"github.com/FPozo/tsnsched/solver/z3backend"
	"github.com/FPozo/tsnsched/synth"
	"github.com/FPozo/tsnsched/xmlio"
)

const (
	exitOK           = 0
	exitInput        = 1
	exitUsageOrModel = 2
	exitEncoding     = 3
	exitInfeasible   = 4
	exitExtraction   = 5
	exitVerification = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("tsnsched", pflag.ContinueOnError)
	timeout := flags.Duration("timeout", 0, "solver check-sat timeout (0 = unbounded)")
	protocolPeriod := flags.Int64("protocol-period", -1, "override the protocol reservation period in ns (-1 = use the input file's value)")
	protocolTime := flags.Int64("protocol-time", -1, "override the protocol reservation time in ns (-1 = use the input file's value)")
	honorStarting := flags.Bool("honor-starting", false, "tighten the range family's lower bound using each frame's Starting element")
	verbose := flags.Bool("verbose", false, "enable debug logging")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageOrModel
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: tsnsched [flags] <input-network.xml> <output-schedule.xml>")
		return exitUsageOrModel
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	inputPath, outputPath := flags.Arg(0), flags.Arg(1)

	net, err := xmlio.Load(inputPath)
	if err != nil {
		logger.Error().Err(err).Str("path", inputPath).Msg("failed to load network")
		return exitCodeFor(err)
	}

	if *protocolPeriod >= 0 {
		net.ProtocolPeriod = *protocolPeriod
	}
	if *protocolTime >= 0 {
		net.ProtocolTime = *protocolTime
	}

	backend := z3backend.New()
	driver := synth.NewDriver(net, backend, constraints.Options{HonorStartingBound: *honorStarting}, logger)
	defer driver.Close()

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	result, err := driver.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str("stage", driver.State().String()).Msg("synthesis failed")
		return exitCodeFor(err)
	}

	if err := xmlio.Write(outputPath, result); err != nil {
		logger.Error().Err(err).Str("path", outputPath).Msg("failed to write schedule")
		return exitCodeFor(err)
	}

	logger.Info().Str("path", outputPath).Msg("schedule verified and written")
	return exitOK
}

// exitCodeFor maps a *schederr.Error's Kind to the exit code spec_full §5
// documents; any other error is treated as a usage/model failure.
func exitCodeFor(err error) int {
	se, ok := err.(*schederr.Error)
	if !ok {
		return exitUsageOrModel
	}
	switch se.Kind {
	case schederr.KindInput:
		return exitInput
	case schederr.KindModel:
		return exitUsageOrModel
	case schederr.KindEncoding:
		return exitEncoding
	case schederr.KindInfeasible:
		return exitInfeasible
	case schederr.KindExtraction:
		return exitExtraction
	case schederr.KindVerification:
		return exitVerification
	default:
		return exitUsageOrModel
	}
}
