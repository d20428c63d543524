// Package pisasim provides a stable public facade over the P-ISA
// functional simulator and performance modeler.
//
// pisasim simulates the polynomial instruction set (P-ISA) used by a
// homomorphic-encryption accelerator: a functional execution engine for
// modular add/sub/multiply/multiply-accumulate and one-stage forward/
// inverse Number Theoretic Transforms, a dependency-graph builder, and a
// cycle-accurate dual-queue scheduler driven by a pluggable hardware
// model.
//
// # Quick start
//
// Running a decoded instruction stream against test vectors:
//
//	cfg := pisasim.DefaultConfig()
//	rt := pisasim.NewRuntime(cfg)
//
//	doc, err := pisasim.LoadTestVectors(r)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := rt.LoadDocument(doc); err != nil {
//		log.Fatal(err)
//	}
//
//	instrs, err := pisasim.DecodeProgram(lines)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := rt.ExecuteLinear(instrs); err != nil {
//		log.Fatal(err)
//	}
//
//	report := rt.Validate(doc.Outputs, true)
//	if !report.Success {
//		log.Fatal("validation failed")
//	}
//
// # Architecture
//
//   - pkg/pisasim/: public API (this package)
//   - internal/pisasim/: private implementation (not importable)
//
// Implementation details under internal/ can be refactored without
// breaking the public API.
package pisasim
