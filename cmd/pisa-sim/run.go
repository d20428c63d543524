package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/dump"
	"github.com/pisa-sim/pisa-sim/pkg/pisasim"
)

func runRun(cmd *cobra.Command, args []string) error {
	data, _ := cmd.Flags().GetString("data")
	inputDump, _ := cmd.Flags().GetString("input-dump")
	outputDump, _ := cmd.Flags().GetString("output-dump")
	reportPath, _ := cmd.Flags().GetString("report")
	modelName, _ := cmd.Flags().GetString("hardware-model")
	layered, _ := cmd.Flags().GetBool("layered")
	schedule, _ := cmd.Flags().GetBool("schedule")
	verbose, _ := cmd.Flags().GetBool("verbose")
	registerWidth, _ := cmd.Flags().GetInt("register-width")
	debug, _ := cmd.Flags().GetBool("debug")
	traceOn, _ := cmd.Flags().GetBool("trace")

	programLines, err := readLines(args[0])
	if err != nil {
		return fatalf("reading instruction file %q: %v", args[0], err)
	}
	instrs, err := pisasim.DecodeProgram(programLines)
	if err != nil {
		return fatalf("decoding %q: %v", args[0], err)
	}
	log.WithField("instructions", len(instrs)).Info("decoded program")

	cfg := pisasim.DefaultConfig()
	cfg.RegisterWidth = registerWidth
	cfg.Debug = debug
	cfg.Trace = traceOn
	cfg.HardwareModel = modelName
	if err := cfg.Validate(); err != nil {
		return fatalf("invalid configuration: %v", err)
	}

	rt := pisasim.NewRuntime(cfg)

	var expected map[string][]uint32
	switch {
	case data != "":
		f, err := os.Open(data)
		if err != nil {
			return fatalf("opening data file %q: %v", data, err)
		}
		defer f.Close()
		doc, err := pisasim.LoadTestVectors(f)
		if err != nil {
			return fatalf("loading test vectors: %v", err)
		}
		if err := rt.LoadDocument(doc); err != nil {
			return fatalf("loading document into runtime: %v", err)
		}
		expected = doc.Outputs
	case inputDump != "":
		f, err := os.Open(inputDump)
		if err != nil {
			return fatalf("opening input dump %q: %v", inputDump, err)
		}
		defer f.Close()
		state, err := dump.Read(f, registerWidth)
		if err != nil {
			return fatalf("reading input dump: %v", err)
		}
		rt.SetModulus(state.Modulus)
		rt.SetTwiddles(state.TwiddleNTT, state.TwiddleINTT)
		rt.Memory = state.Memory
		rt.Engine.Modulus = state.Modulus
		rt.Engine.TwiddleNTT = state.TwiddleNTT
		rt.Engine.TwiddleINTT = state.TwiddleINTT
	}

	if layered {
		err = rt.ExecuteLayered(instrs, true)
	} else {
		err = rt.ExecuteLinear(instrs)
	}
	if err != nil {
		return fatalf("execution failed: %v", err)
	}

	report := make(map[string]any)
	if expected != nil {
		vr := rt.Validate(expected, verbose)
		report["validation"] = vr
		if !vr.Success {
			log.Warn("validation failed")
		}
	}

	if schedule {
		models := pisasim.Models()
		model, ok := models.Get(modelName)
		if !ok {
			return fatalf("unknown hardware model %q", modelName)
		}
		g := pisasim.BuildGraph(instrs)
		report["schedule"] = pisasim.Schedule(g, model)
	}

	if outputDump != "" {
		f, err := os.Create(outputDump)
		if err != nil {
			return fatalf("creating output dump %q: %v", outputDump, err)
		}
		defer f.Close()
		state := &dump.State{
			Modulus:     rt.Engine.Modulus,
			TwiddleNTT:  rt.Engine.TwiddleNTT,
			TwiddleINTT: rt.Engine.TwiddleINTT,
			Memory:      rt.Memory,
		}
		if err := dump.Write(f, state); err != nil {
			return fatalf("writing output dump: %v", err)
		}
	}

	if err := writeReport(reportPath, report); err != nil {
		return fatalf("writing report: %v", err)
	}

	if vr, ok := report["validation"].(*pisasim.ValidationReport); ok && !vr.Success {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	start := 0
	for i, c := range b {
		if c == '\n' {
			lines = append(lines, string(b[start:i]))
			start = i + 1
		}
	}
	if start < len(b) {
		lines = append(lines, string(b[start:]))
	}
	return lines, nil
}

func writeReport(path string, report map[string]any) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
