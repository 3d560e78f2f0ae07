package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubEmitToRegisteredClient(t *testing.T) {
	hub := NewHub()
	send := make(chan []byte, 4)
	hub.Register("s1", send)

	hub.Emit("s1", "log_update", map[string]string{"message": "hello"})

	var env envelope
	require.NoError(t, json.Unmarshal(<-send, &env))
	assert.Equal(t, "log_update", env.Event)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", data["message"])
}

func TestHubEmitUnknownSessionDropped(t *testing.T) {
	hub := NewHub()
	// No client registered; must not panic or block.
	hub.Emit("nobody", "log_update", map[string]string{"message": "dropped"})
}

func TestHubEmitFullBufferDropsEvent(t *testing.T) {
	hub := NewHub()
	send := make(chan []byte, 1)
	hub.Register("s1", send)

	hub.Emit("s1", "one", nil)
	hub.Emit("s1", "two", nil)

	var env envelope
	require.NoError(t, json.Unmarshal(<-send, &env))
	assert.Equal(t, "one", env.Event)

	select {
	case extra := <-send:
		t.Fatalf("unexpected second event: %s", extra)
	default:
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	send := make(chan []byte, 1)
	hub.Register("s1", send)

	hub.Unregister("s1")

	_, open := <-send
	assert.False(t, open)

	// Emit after unregister is a no-op, and a second unregister must not
	// double-close.
	hub.Emit("s1", "late", nil)
	hub.Unregister("s1")
}
