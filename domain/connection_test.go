package domain

import (
	goerrors "errors"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestApply_Table(t *testing.T) {
	auth := errors.ErrAuthenticationFailure.Error()
	reconnect := errors.ErrReconnectFailure.Error()

	tests := []struct {
		name     string
		from     Status
		event    event.Lifecycle
		expected Status
	}{
		{"connected from connecting", Status{}, event.Connected{Success: true}, Status{State: Connected}},
		{"connected clears error", Status{State: Disconnected, LastError: auth}, event.Connected{Success: true}, Status{State: Connected}},
		{"authentication refused", Status{}, event.Connected{Success: false}, Status{State: Disconnected, LastError: auth}},
		{"reconnecting keeps error", Status{State: Connected, LastError: "publish"}, event.Reconnect{Phase: event.Reconnecting}, Status{State: Reconnecting, LastError: "publish"}},
		{"reconnected clears error", Status{State: Reconnecting, LastError: "publish"}, event.Reconnect{Phase: event.Reconnected}, Status{State: Connected}},
		{"reconnect failed", Status{State: Reconnecting}, event.Reconnect{Phase: event.ReconnectFailed}, Status{State: Disconnected, LastError: reconnect}},
		{"unknown phase ignored", Status{State: Connected}, event.Reconnect{Phase: "SOMETHING"}, Status{State: Connected}},
		{"disconnected keeps error", Status{State: Disconnected, LastError: reconnect}, event.Disconnected{}, Status{State: Disconnected, LastError: reconnect}},
		{"disconnected sets no error", Status{State: Connected}, event.Disconnected{}, Status{State: Disconnected}},
		{"setup failure", Status{}, event.SetupFailed{Err: goerrors.New("boom")}, Status{State: Disconnected, LastError: "boom"}},
		{"setup failure without cause", Status{}, event.SetupFailed{}, Status{State: Disconnected, LastError: errors.ErrUnknownTransport.Error()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Apply(tt.from, tt.event))
		})
	}
}

func TestFold_IsLeftToRightApply(t *testing.T) {
	sequences := [][]event.Lifecycle{
		{},
		{event.Connected{Success: true}},
		{event.Connected{Success: true}, event.Reconnect{Phase: event.Reconnecting}, event.Reconnect{Phase: event.Reconnected}},
		{event.Connected{Success: true}, event.Reconnect{Phase: event.Reconnecting}, event.Reconnect{Phase: event.ReconnectFailed}, event.Disconnected{}},
		{event.Connected{Success: false}, event.Connected{Success: true}, event.Connected{Success: true}},
		{event.Disconnected{}, event.Reconnect{Phase: event.Reconnected}},
	}

	for _, seq := range sequences {
		expected := Status{}
		for _, e := range seq {
			expected = Apply(expected, e)
		}
		if diff := cmp.Diff(expected, Fold(Status{}, seq...)); diff != "" {
			t.Errorf("fold mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestFold_ReconnectFailureAlwaysDisconnects(t *testing.T) {
	req := require.New(t)
	prefixes := [][]event.Lifecycle{
		{},
		{event.Connected{Success: true}},
		{event.Connected{Success: false}},
		{event.Connected{Success: true}, event.Reconnect{Phase: event.Reconnecting}},
		{event.Disconnected{}},
	}

	for _, prefix := range prefixes {
		// Given any prior history
		// When the transport gives up reconnecting
		status := Fold(Status{}, append(prefix, event.Reconnect{Phase: event.ReconnectFailed})...)

		// Then the session is disconnected with an explanation
		req.Equal(Disconnected, status.State)
		req.NotEmpty(status.LastError)
		req.False(status.Ready())
	}
}

func TestConnectionState_String(t *testing.T) {
	req := require.New(t)
	req.Equal("connecting", Status{}.State.String())
	req.Equal("reconnecting", Reconnecting.String())
	req.Equal("unknown", ConnectionState(42).String())
}
