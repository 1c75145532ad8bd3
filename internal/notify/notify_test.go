package notify

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/lox/omahareader/internal/readmodel"
)

func TestNotifyInRegistrationOrder(t *testing.T) {
	n := New(log.New(io.Discard))

	var calls []string
	for _, name := range []string{"first", "second", "third"} {
		n.Subscribe(name, SubscriberFunc(func(readmodel.Payload) { calls = append(calls, name) }))
	}

	n.Notify(readmodel.Payload{})
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestNotifyIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	n := New(log.New(&buf))

	var got []readmodel.Payload
	n.Subscribe("errors", func(readmodel.Payload) error { return errors.New("socket closed") })
	n.Subscribe("panics", func(readmodel.Payload) error { panic("boom") })
	n.Subscribe("ok", SubscriberFunc(func(p readmodel.Payload) { got = append(got, p) }))

	assert.NotPanics(t, func() {
		n.Notify(readmodel.Payload{Type: readmodel.UpdateType})
	})
	assert.Len(t, got, 1)
	assert.Equal(t, readmodel.UpdateType, got[0].Type)
	assert.Contains(t, buf.String(), "socket closed")
	assert.Contains(t, buf.String(), "boom")
}

func TestUnsubscribe(t *testing.T) {
	n := New(log.New(io.Discard))

	count := 0
	unsubscribe := n.Subscribe("a", SubscriberFunc(func(readmodel.Payload) { count++ }))
	n.Subscribe("b", SubscriberFunc(func(readmodel.Payload) {}))
	assert.Equal(t, 2, n.Count())

	n.Notify(readmodel.Payload{})
	unsubscribe()
	unsubscribe()
	n.Notify(readmodel.Payload{})

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, n.Count())
}

func TestSubscribersRegisteredLaterMissEarlierUpdates(t *testing.T) {
	n := New(log.New(io.Discard))
	n.Notify(readmodel.Payload{})

	count := 0
	n.Subscribe("late", SubscriberFunc(func(readmodel.Payload) { count++ }))
	assert.Zero(t, count)

	n.Clear()
	n.Notify(readmodel.Payload{})
	assert.Zero(t, count)
	assert.Zero(t, n.Count())
}
