package network

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/intcode/machine"
)

// mailbox holds the values sent to a node that it has not yet received.
type mailbox struct {
	values []int64
	wake   chan struct{}
	halted bool
}

// exchange moves values between the goroutines of a concurrent run, and
// detects when no node can make progress.
type exchange struct {
	mutex   sync.Mutex
	boxes   []mailbox
	live    int
	waiting int
	stuck   chan struct{}
	closed  bool
}

func newExchange(nodes int) (ex *exchange) {
	ex = &exchange{
		boxes: make([]mailbox, nodes),
		live:  nodes,
		stuck: make(chan struct{}),
	}
	for n := range ex.boxes {
		ex.boxes[n].wake = make(chan struct{}, 1)
	}
	return
}

// check closes the stuck channel when every live node is waiting on an
// empty mailbox. Called with the mutex held.
func (ex *exchange) check() {
	if ex.closed || ex.live == 0 || ex.waiting < ex.live {
		return
	}

	for _, box := range ex.boxes {
		if !box.halted && len(box.values) > 0 {
			return
		}
	}

	ex.closed = true
	close(ex.stuck)
}

// send delivers a value to node n. Values sent to a halted node are
// dropped.
func (ex *exchange) send(n int, value int64) {
	ex.mutex.Lock()
	defer ex.mutex.Unlock()

	box := &ex.boxes[n]
	if box.halted {
		return
	}

	box.values = append(box.values, value)
	select {
	case box.wake <- struct{}{}:
	default:
	}
}

// receive waits for values sent to node n.
func (ex *exchange) receive(ctx context.Context, n int) (values []int64, err error) {
	ex.mutex.Lock()
	defer ex.mutex.Unlock()

	box := &ex.boxes[n]
	for len(box.values) == 0 {
		ex.waiting++
		ex.check()
		ex.mutex.Unlock()

		select {
		case <-box.wake:
		case <-ex.stuck:
			err = ErrDeadlock
		case <-ctx.Done():
			err = ctx.Err()
		}

		ex.mutex.Lock()
		ex.waiting--
		if err != nil {
			return
		}
	}

	values = box.values
	box.values = nil
	return
}

// halt retires node n.
func (ex *exchange) halt(n int) {
	ex.mutex.Lock()
	defer ex.mutex.Unlock()

	box := &ex.boxes[n]
	if box.halted {
		return
	}

	box.halted = true
	box.values = nil
	ex.live--
	ex.check()
}

// RunConcurrent runs every node of the pipeline on its own goroutine,
// until every node has halted. Returns the last output of the final node.
//
// Cancelling the context halts every node. A node fault, or every live
// node waiting on input that will never arrive, stops the whole network.
func (pipe *Pipeline) RunConcurrent(ctx context.Context) (last int64, err error) {
	if len(pipe.Nodes) == 0 {
		err = ErrEmpty
		return
	}

	ex := newExchange(len(pipe.Nodes))
	group, ctx := errgroup.WithContext(ctx)

	for n, node := range pipe.Nodes {
		group.Go(func() error {
			defer ex.halt(n)
			return pipe.drive(ctx, ex, n, node)
		})
	}

	err = group.Wait()
	if err != nil {
		return
	}

	return pipe.result()
}

// drive owns a single node for the duration of a concurrent run.
func (pipe *Pipeline) drive(ctx context.Context, ex *exchange, n int, node *machine.Machine) (err error) {
	if next := pipe.next(n); next >= 0 {
		cancel := node.OnOutput(func(value int64) {
			ex.send(next, value)
		})
		defer cancel()
	}

	if pipe.Verbose {
		log.Printf("network: start node %d (%v)", n, node.Label())
	}

	_, err = node.Run()
	if err != nil && !errors.Is(err, machine.ErrHalted) {
		return pipe.nodeErr(n, err)
	}

	for {
		switch {
		case node.Halted():
			if pipe.Verbose {
				log.Printf("network: node %d (%v) halted", n, node.Label())
			}
			if node.Result().Faulted() {
				return pipe.nodeErr(n, node.Result().Err)
			}
			return nil
		case node.Paused():
			node.Resume()
			continue
		}

		var values []int64
		values, err = ex.receive(ctx, n)
		if err != nil {
			node.Halt()
			if errors.Is(err, ErrDeadlock) {
				err = pipe.nodeErr(n, err)
			}
			return
		}

		node.Input(values...)
	}
}
