package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonegen/pkg/audio"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_InitialStateAndBroadcast(t *testing.T) {
	ctrl, _ := newTestControls(t)
	hub := NewHub(ctrl)
	srv := httptest.NewServer(NewMux(NewToneHandler(ctrl, hub.Broadcast), hub, nil))
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	first := readMessage(t, a)
	require.Equal(t, "state", first.Type)
	require.NotNil(t, first.Status)
	assert.False(t, first.Status.Playing)
	assert.Equal(t, "Play", first.Status.Label)

	b := dialHub(t, srv)
	readMessage(t, b)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "toggle"}))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		require.Equal(t, "state", msg.Type)
		assert.True(t, msg.Status.Playing)
		assert.Equal(t, "Stop", msg.Status.Label)
	}
}

func TestHub_RejectedEventOnlyReachesSender(t *testing.T) {
	ctrl, _ := newTestControls(t)
	hub := NewHub(ctrl)
	srv := httptest.NewServer(NewMux(NewToneHandler(ctrl, hub.Broadcast), hub, nil))
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	readMessage(t, a)

	loud := 6.0
	require.NoError(t, a.WriteJSON(ClientMessage{Type: "gain", Value: &loud}))
	msg := readMessage(t, a)
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Message)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readMessage(t, a)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "invalid message", msg.Message)
}

func TestHub_RESTChangesReachPages(t *testing.T) {
	ctrl, _ := newTestControls(t)
	hub := NewHub(ctrl)
	srv := httptest.NewServer(NewMux(NewToneHandler(ctrl, hub.Broadcast), hub, nil))
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	readMessage(t, a)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := srv.Client().Post(srv.URL+"/api/tone/waveform", "application/json", strings.NewReader(`{"waveform":"square"}`))
	require.NoError(t, err)
	resp.Body.Close()

	msg := readMessage(t, a)
	require.Equal(t, "state", msg.Type)
	assert.Equal(t, audio.Square, msg.Status.Waveform)
}

func TestHub_Apply(t *testing.T) {
	db := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		msg        ClientMessage
		wantOK     bool
		wantReason string
	}{
		{"Toggle", ClientMessage{Type: "toggle"}, true, ""},
		{"Gain", ClientMessage{Type: "gain", Value: db(-12)}, true, ""},
		{"GainMissingValue", ClientMessage{Type: "gain"}, false, "gain requires a value"},
		{"GainOutOfRange", ClientMessage{Type: "gain", Value: db(3)}, false, ""},
		{"Waveform", ClientMessage{Type: "waveform", Waveform: "Triangle"}, true, ""},
		{"WaveformUnknown", ClientMessage{Type: "waveform", Waveform: "pulse"}, false, ""},
		{"UnknownType", ClientMessage{Type: "reboot"}, false, "unknown message type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestControls(t)
			hub := NewHub(ctrl)

			ok, reason := hub.Apply(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Empty(t, reason)
				return
			}
			assert.NotEmpty(t, reason)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	ctrl, _ := newTestControls(t)
	hub := NewHub(ctrl)
	srv := httptest.NewServer(NewMux(NewToneHandler(ctrl, hub.Broadcast), hub, nil))
	defer srv.Close()

	a := dialHub(t, srv)
	readMessage(t, a)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)
}
