package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/better-hash/ai-video-generator/internal/controller"
)

type noticeMsg struct {
	notice controller.Notice
}

type videoMsg struct {
	view controller.VideoView
}

// opDoneMsg reports the end of a controller call started from a key press.
type opDoneMsg struct {
	op  string
	err error
}

// bridge forwards observer callbacks into the program. Sends block until the
// program reads them or the bridge closes.
type bridge struct {
	ch     chan tea.Msg
	done   chan struct{}
	once   sync.Once
	unsubs []func()
}

func newBridge() *bridge {
	return &bridge{ch: make(chan tea.Msg, 64), done: make(chan struct{})}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

func (b *bridge) attach(unsub func()) {
	b.unsubs = append(b.unsubs, unsub)
}

// next waits for the following forwarded message.
func (b *bridge) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() {
		for _, unsub := range b.unsubs {
			unsub()
		}
		close(b.done)
	})
}
