package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// toastMsg reports the outcome of a background call.
type toastMsg struct {
	text string
	err  bool
}

// sessionExpiredMsg is sent when the backend no longer accepts the session.
type sessionExpiredMsg struct{}

// notifier forwards view notifications to the program through channels.
// Sends never block. A full toast queue drops the toast, but an expired
// session has its own slot and is delivered ahead of queued toasts.
type notifier struct {
	ch      chan tea.Msg
	expired chan struct{}
}

func newNotifier() *notifier {
	return &notifier{
		ch:      make(chan tea.Msg, 32),
		expired: make(chan struct{}, 1),
	}
}

func (n *notifier) send(msg tea.Msg) {
	select {
	case n.ch <- msg:
	default:
	}
}

func (n *notifier) Success(msg string) { n.send(toastMsg{text: msg}) }
func (n *notifier) Error(msg string)   { n.send(toastMsg{text: msg, err: true}) }

func (n *notifier) Unauthenticated() {
	select {
	case n.expired <- struct{}{}:
	default:
	}
}

// next waits for the following notification.
func (n *notifier) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.expired:
			return sessionExpiredMsg{}
		default:
		}
		select {
		case <-n.expired:
			return sessionExpiredMsg{}
		case msg := <-n.ch:
			return msg
		}
	}
}
