package batch

import (
	"context"
	"os"
	"os/signal"
)

// Interrupts wires OS signals to a running batch: the first one calls cancel, the second abandons
// the items still running. The returned function stops listening.
func Interrupts(cancel context.CancelFunc, o *Orchestrator, signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)

	quit := make(chan struct{})
	go func() {
		var count int
		for {
			select {
			case <-ch:
				count++
				if count == 1 {
					cancel()
				} else {
					o.Abandon()
				}
			case <-quit:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(quit)
	}
}
