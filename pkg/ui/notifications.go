package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers one desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to the platform's notification tool
type commandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c commandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

// senderFor picks the notification tool for goos, or nil when there is none
func senderFor(goos string) NotificationSender {
	switch goos {
	case "linux":
		return commandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", title, message)
		}}
	case "darwin":
		return commandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf(`display notification %q with title %q`, message, title)
			return exec.Command("osascript", "-e", script)
		}}
	default:
		return nil
	}
}

// Notifier announces the end of long collection runs
type Notifier struct {
	sender  NotificationSender
	enabled bool
}

// NewNotifier creates a Notifier for the current platform. A disabled
// notifier only prints to the terminal.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{sender: senderFor(runtime.GOOS), enabled: enabled}
}

// SendSuccess prints the message and raises a desktop notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(Out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// SendError prints the message in red and raises a desktop notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(Out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if !n.enabled || n.sender == nil {
		return
	}
	// notifications are best effort
	_ = n.sender.Send(title, message)
}
