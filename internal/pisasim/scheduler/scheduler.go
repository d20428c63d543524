// Package scheduler implements the dual-queue cycle-accurate dispatch
// simulation: an INSTRUCTION queue and a MEMORY queue sharing one system
// clock, driven by a pluggable hwmodel.Model, producing a Report.
package scheduler

import (
	"github.com/pisa-sim/pisa-sim/internal/pisasim/graph"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/hwmodel"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
)

// TimelineEntry is one dispatched slot: either a real node (Label set,
// Instruction set for operation nodes) or a NOP (Label == "nop").
type TimelineEntry struct {
	Label       string
	Instruction *isa.Instruction
	Queue       string // "instruction" or "memory"
}

// Report summarizes a completed schedule.
type Report struct {
	TotalCycles      int
	InstructionNOPs  int
	MemoryNOPs       int
	Timeline         []TimelineEntry
	Inputs           int
	Outputs          int
	Depth            int
	WidthMin         int
	WidthAvg         float64
	WidthMax         int
	OpCounts         map[isa.Op]int
	QueueUtilization map[string]float64
}

type window struct{ start, end int }

// Schedule runs the scheduler's dual-queue dispatch loop over g (which is
// cloned; the caller's graph is never mutated) against model, and returns
// the resulting Report.
//
// Program inputs are already resident in memory when a kernel begins, so
// they are spliced out before dispatch starts and never occupy a MEMORY
// queue slot: an operation becomes dispatchable as soon as every
// predecessor has been *issued*, not once a predecessor's own latency has
// elapsed (real hardware forwards results between back-to-back pipeline
// stages rather than waiting for the write-back). A node is therefore
// spliced out of the working graph the instant it is scheduled.
func Schedule(g *graph.Graph, model *hwmodel.Model) *Report {
	work := g.Clone()

	inputs := g.InputNodes(nil)
	outputs := g.OutputNodes()
	layers := g.Layers()

	report := &Report{
		Inputs:           len(inputs),
		Outputs:          len(outputs),
		Depth:            len(layers),
		OpCounts:         make(map[isa.Op]int),
		QueueUtilization: make(map[string]float64),
	}
	report.WidthMin, report.WidthMax, report.WidthAvg = widthStats(layers)

	for _, id := range inputs {
		if work.IsAlive(id) {
			work.RemoveNodeMaintainConnections(id)
		}
	}

	scheduled := make(map[int]window)
	lastAccess := make(map[int]int)
	counter := 0

	clock := 0
	instrQueueClock := 0
	memQueueClock := 0
	maxOpEnd := 0

	for len(work.Nodes()) > 0 {
		scheduledInstruction := false
		scheduledMemory := false

		for progress := true; progress; {
			progress = false
			for _, id := range work.InputNodes(nil) {
				if !work.IsAlive(id) {
					continue
				}
				if _, already := scheduled[id]; already {
					continue
				}
				n := work.Node(id)
				if n.Kind == graph.Operation {
					if instrQueueClock > clock {
						continue
					}
					timing, ok := model.Instruction(n.Instruction.Op)
					if !ok {
						timing = hwmodel.Timing{Throughput: 1, Latency: 1}
					}
					end := clock + timing.Latency
					scheduled[id] = window{start: clock, end: end}
					if end > maxOpEnd {
						maxOpEnd = end
					}
					instrQueueClock = clock + timing.Throughput
					for i := 0; i < timing.Throughput-1; i++ {
						report.Timeline = append(report.Timeline, TimelineEntry{Label: "nop", Queue: "instruction"})
						report.InstructionNOPs++
					}
					clock += timing.Throughput - 1
					report.Timeline = append(report.Timeline, TimelineEntry{Label: n.Label, Instruction: n.Instruction, Queue: "instruction"})
					report.OpCounts[n.Instruction.Op]++
					work.RemoveNodeMaintainConnections(id)
					scheduledInstruction = true
					progress = true
				} else {
					if memQueueClock > clock {
						continue
					}
					tier := classify(g, id, lastAccess, &counter, model)
					timing := model.MemoryTiming(tier)
					scheduled[id] = window{start: clock, end: clock + timing.Latency}
					memQueueClock = clock + timing.Throughput
					for i := 0; i < timing.Throughput-1; i++ {
						report.Timeline = append(report.Timeline, TimelineEntry{Label: "nop", Queue: "memory"})
						report.MemoryNOPs++
					}
					clock += timing.Throughput - 1
					report.Timeline = append(report.Timeline, TimelineEntry{Label: n.Label, Queue: "memory"})
					work.RemoveNodeMaintainConnections(id)
					scheduledMemory = true
					progress = true
				}
			}
		}

		if !scheduledInstruction {
			report.Timeline = append(report.Timeline, TimelineEntry{Label: "nop", Queue: "instruction"})
			report.InstructionNOPs++
		}
		if !scheduledMemory {
			report.Timeline = append(report.Timeline, TimelineEntry{Label: "nop", Queue: "memory"})
			report.MemoryNOPs++
		}
		clock++
	}

	report.TotalCycles = clock
	if maxOpEnd > report.TotalCycles {
		report.TotalCycles = maxOpEnd
	}
	if clock > 0 {
		report.QueueUtilization["instruction"] = 1 - float64(report.InstructionNOPs)/float64(clock)
		report.QueueUtilization["memory"] = 1 - float64(report.MemoryNOPs)/float64(clock)
	}
	return report
}

// classify implements spec.md §4.I's memory-tier reuse-distance
// classification: program sources/sinks (judged against the original,
// unspliced graph, since the working copy's in-degree collapses to zero
// for every node the instant its producer is dispatched) are always
// MEMORY_CACHE; otherwise the tier is chosen from the gap since the
// node's last access.
func classify(g *graph.Graph, id int, lastAccess map[int]int, counter *int, model *hwmodel.Model) hwmodel.Tier {
	if len(g.Predecessors(id)) == 0 || len(g.Successors(id)) == 0 {
		lastAccess[id] = *counter
		*counter++
		return hwmodel.MemoryCache
	}
	delta := *counter - lastAccess[id]
	var tier hwmodel.Tier
	switch {
	case delta < model.Capacity(hwmodel.Register):
		tier = hwmodel.Register
	case delta < model.Capacity(hwmodel.Cache):
		tier = hwmodel.Cache
	default:
		tier = hwmodel.MemoryCache
	}
	lastAccess[id] = *counter
	*counter++
	return tier
}

func widthStats(layers [][]int) (min, max int, avg float64) {
	if len(layers) == 0 {
		return 0, 0, 0
	}
	min, max = len(layers[0]), len(layers[0])
	total := 0
	for _, l := range layers {
		if len(l) < min {
			min = len(l)
		}
		if len(l) > max {
			max = len(l)
		}
		total += len(l)
	}
	return min, max, float64(total) / float64(len(layers))
}
