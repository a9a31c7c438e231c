//go:build windows

package process

import (
	"os"
	"os/exec"
	"os/signal"
	"strconv"
)

func setProcessGroup(*exec.Cmd) {}

// killTree force-kills the child and every process it started
func killTree(p *os.Process) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(p.Pid)).Run()
}

// relayInterrupt kills the child on Ctrl+C when it does not share our console
// input and so would never see the interrupt itself.
func relayInterrupt(h *Handle, stdinInherited bool) func() {
	if stdinInherited {
		return func() {}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	stop := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			h.Abort()
		case <-stop:
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(stop)
	}
}
