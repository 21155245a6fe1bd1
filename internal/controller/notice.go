package controller

import (
	"errors"
	"sort"
	"sync"
)

// ErrBusy is returned when a submit action is attempted while the previous
// one is still loading.
var ErrBusy = errors.New("controller: action already in progress")

// Level classifies a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient user-facing message.
type Notice struct {
	Level Level
	Text  string
}

// observers is a small fan-out list. Callbacks run on the emitting goroutine
// without any controller lock held.
type observers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (o *observers[T]) subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.fns, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers[T]) emit(value T) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(value)
	}
}

type notices struct {
	observers[Notice]
}

// SubscribeNotices registers fn for every notice and returns a function that
// removes it.
func (n *notices) SubscribeNotices(fn func(Notice)) func() {
	return n.subscribe(fn)
}

func (n *notices) info(text string)    { n.emit(Notice{Level: LevelInfo, Text: text}) }
func (n *notices) success(text string) { n.emit(Notice{Level: LevelSuccess, Text: text}) }
func (n *notices) warn(text string)    { n.emit(Notice{Level: LevelWarning, Text: text}) }
func (n *notices) fail(text string)    { n.emit(Notice{Level: LevelError, Text: text}) }
