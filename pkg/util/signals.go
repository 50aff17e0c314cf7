package util

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Stopper returns a channel that remains open until an interrupt is received.
// A second interrupt exits the process.
func Stopper() chan struct{} {
	stop := make(chan struct{})
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logrus.Warn("Interrupt received, attempting clean shutdown...")
		close(stop)
		<-c
		logrus.Error("Second interrupt received, force exiting...")
		os.Exit(1)
	}()
	return stop
}

// OnHangup calls reload every time SIGHUP is received until stop is closed.
func OnHangup(stop <-chan struct{}, reload func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP)
	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-stop:
				return
			case <-c:
				logrus.Info("SIGHUP received, reloading")
				reload()
			}
		}
	}()
}
