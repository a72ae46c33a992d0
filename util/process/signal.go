package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func WaitForSignal(signals ...os.Signal) {
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, signals...)
	<-stopSignal
	signal.Stop(stopSignal)
}

// A context that is cancelled when the process is interrupted or terminated.

func InterruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
