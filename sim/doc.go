// Package sim provides the tick-driven CPU scheduling simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - job.go: Job lifecycle (new → ready → running → waiting → io → exit)
//   - queueset.go: the job arena and the named queues, with single-owner moves
//   - simulator.go: the per-tick transition function (Step) and the run loop
//
// # Architecture
//
// The sim package defines the engine and its extension points; collaborators
// live in sub-packages:
//   - sim/source/: burst sources (seeded synthetic generator, HTTP job server client)
//   - sim/report/: tabular rendering of per-tick snapshots
//   - sim/trace/: queue-transition trace recording
//
// # Key Interfaces
//
//   - BurstSource: pull-based supplier of arrivals and bursts
//   - Policy: ready levels, entry level, aging, quantum accounting (RR, MLFQ, FCFS, PB)
//   - SnapshotSink: receives the state published after every tick
package sim
