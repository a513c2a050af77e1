// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package network

import (
	"errors"
	"log"

	"github.com/ezrec/intcode/machine"
)

// Pipeline is a chain of machines, where the outputs of each node are
// the inputs of the next. With Feedback, the outputs of the final node
// are the inputs of the first.
//
// Each node is owned by the pipeline while it runs; values only move
// between nodes through their input queues.
type Pipeline struct {
	Verbose  bool               // If set, logs node transitions.
	Nodes    []*machine.Machine // Nodes, in order.
	Feedback bool               // If set, the final node feeds the first.
}

// next returns the index of the node fed by node n, or -1.
func (pipe *Pipeline) next(n int) int {
	switch {
	case n+1 < len(pipe.Nodes):
		return n + 1
	case pipe.Feedback:
		return 0
	default:
		return -1
	}
}

// nodeErr wraps an error with the node location.
func (pipe *Pipeline) nodeErr(n int, err error) error {
	return &ErrNode{Label: pipe.Nodes[n].Label(), Index: n, Err: err}
}

// Run the pipeline cooperatively, on the calling goroutine, until every
// node has halted. Returns the last output of the final node.
//
// Forwarding an output to a waiting node continues that node
// synchronously, so a feedback loop is driven entirely from the
// observers.
func (pipe *Pipeline) Run() (last int64, err error) {
	if len(pipe.Nodes) == 0 {
		err = ErrEmpty
		return
	}

	var cancels []func()
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	for n, node := range pipe.Nodes {
		next := pipe.next(n)
		if next < 0 {
			continue
		}
		target := pipe.Nodes[next]
		cancels = append(cancels, node.OnOutput(func(value int64) {
			target.Input(value)
		}))
	}

	for n, node := range pipe.Nodes {
		if pipe.Verbose {
			log.Printf("network: run node %d (%v)", n, node.Label())
		}
		_, err = node.Run()
		if err != nil && !errors.Is(err, machine.ErrHalted) {
			err = pipe.nodeErr(n, err)
			return
		}
		err = nil
	}

	// Release paused nodes until none are left.
	for resumed := true; resumed; {
		resumed = false
		for _, node := range pipe.Nodes {
			if node.Paused() {
				node.Resume()
				resumed = true
			}
		}
	}

	return pipe.result()
}

// result reports the outcome of a network whose nodes are all suspended
// or halted.
func (pipe *Pipeline) result() (last int64, err error) {
	for n, node := range pipe.Nodes {
		if node.Halted() {
			if node.Result().Faulted() {
				err = pipe.nodeErr(n, node.Result().Err)
				return
			}
			continue
		}
		if pipe.Verbose {
			log.Printf("network: node %d (%v) %v", n, node.Label(), node.State())
		}
		err = pipe.nodeErr(n, ErrDeadlock)
		return
	}

	outputs := pipe.Nodes[len(pipe.Nodes)-1].Outputs()
	if len(outputs) == 0 {
		err = ErrNoOutput
		return
	}

	last = outputs[len(outputs)-1]
	return
}
