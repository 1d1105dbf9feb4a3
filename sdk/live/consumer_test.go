package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestStreamURL(t *testing.T) {
	testCases := []struct {
		name       string
		apiAddress string
		assertions func(t *testing.T, streamURL string, err error)
	}{
		{
			name:       "http",
			apiAddress: "http://buildbot.example.com:8010/",
			assertions: func(t *testing.T, streamURL string, err error) {
				require.NoError(t, err)
				require.Equal(t, "ws://buildbot.example.com:8010/ws", streamURL)
			},
		},
		{
			name:       "https with a path",
			apiAddress: "https://example.com/buildbot",
			assertions: func(t *testing.T, streamURL string, err error) {
				require.NoError(t, err)
				require.Equal(t, "wss://example.com/buildbot/ws", streamURL)
			},
		},
		{
			name:       "unsupported scheme",
			apiAddress: "ftp://example.com",
			assertions: func(t *testing.T, _ string, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), "unsupported scheme")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			streamURL, err := StreamURL(testCase.apiAddress)
			testCase.assertions(t, streamURL, err)
		})
	}
}

func TestBasicAuthHeader(t *testing.T) {
	require.Empty(t, BasicAuthHeader("", "").Get("Authorization"))
	require.Equal(
		t,
		"Basic dG9ueTpzdGFyaw==",
		BasicAuthHeader("tony", "stark").Get("Authorization"),
	)
}

func TestMessage(t *testing.T) {
	msg := Message{Key: "builds/42/finished"}
	require.Equal(t, []string{"builds", "42", "finished"}, msg.Path())
	require.Equal(t, "finished", msg.Event())
}

func TestBearerAuthHeader(t *testing.T) {
	require.Empty(t, BearerAuthHeader("").Get("Authorization"))
	require.Equal(
		t,
		"Bearer s3cr3t",
		BearerAuthHeader("s3cr3t").Get("Authorization"),
	)
}

// newFakeMaster starts a websocket endpoint that expects the given
// Authorization header. It acknowledges pings and subscriptions to
// "builds/*/*", publishing one event per subscription, and rejects anything
// else. Every command it reads is also sent to the returned channel.
func newFakeMaster(
	t *testing.T,
	authorization string,
) (*httptest.Server, <-chan command) {
	upgrader := websocket.Upgrader{}
	commands := make(chan command, 16)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authorization, r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			cmd := command{}
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			commands <- cmd
			known := cmd.Cmd == "ping" ||
				(cmd.Cmd == "startConsuming" && cmd.Path == "builds/*/*") ||
				(cmd.Cmd == "stopConsuming" && cmd.Path == "builds/*/*")
			if !known {
				if err := conn.WriteJSON(map[string]interface{}{
					"_id":   cmd.ID,
					"code":  404,
					"error": "no such path",
				}); err != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(map[string]interface{}{
				"_id":  cmd.ID,
				"code": 200,
			}); err != nil {
				return
			}
			if cmd.Cmd != "startConsuming" {
				continue
			}
			if err := conn.WriteJSON(map[string]interface{}{
				"k": "builds/42/new",
				"m": map[string]interface{}{"buildid": 42, "complete": false},
			}); err != nil {
				return
			}
		}
	})
	return httptest.NewServer(mux), commands
}

func requireCommands(
	ctx context.Context,
	t *testing.T,
	commands <-chan command,
	expected []command,
) {
	for _, expectedCmd := range expected {
		select {
		case cmd := <-commands:
			require.Equal(t, expectedCmd, cmd)
		case <-ctx.Done():
			require.Fail(t, "timed out waiting for a command", expectedCmd.Cmd)
		}
	}
}

func TestConsumer(t *testing.T) {
	server, commands := newFakeMaster(t, "Basic dG9ueTpzdGFyaw==")
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	consumer, err := Dial(ctx, server.URL, BasicAuthHeader("tony", "stark"), false)
	require.NoError(t, err)
	defer consumer.Close()

	msgCh, errCh := consumer.Receive(ctx)

	require.NoError(t, consumer.Subscribe(ctx, "builds/*/*"))
	select {
	case msg := <-msgCh:
		require.Equal(t, "builds/42/new", msg.Key)
		record := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(msg.Body, &record))
		require.Equal(t, float64(42), record["buildid"])
	case err := <-errCh:
		require.NoError(t, err)
	case <-ctx.Done():
		require.Fail(t, "timed out waiting for an event")
	}

	// Acknowledged commands produce neither events nor errors.
	require.NoError(t, consumer.Ping(ctx))
	require.NoError(t, consumer.Unsubscribe(ctx, "builds/*/*"))

	require.NoError(t, consumer.Subscribe(ctx, "steps/*/*"))
	select {
	case msg := <-msgCh:
		require.Fail(t, "unexpected event", msg.Key)
	case err := <-errCh:
		require.IsType(t, &ErrCommand{}, err)
		cmdErr := err.(*ErrCommand)
		require.Equal(t, int64(4), cmdErr.ID)
		require.Equal(t, 404, cmdErr.Code)
		require.Equal(t, "no such path", cmdErr.Reason)
	case <-ctx.Done():
		require.Fail(t, "timed out waiting for a command error")
	}

	requireCommands(
		ctx,
		t,
		commands,
		[]command{
			{Cmd: "startConsuming", Path: "builds/*/*", ID: 1},
			{Cmd: "ping", ID: 2},
			{Cmd: "stopConsuming", Path: "builds/*/*", ID: 3},
			{Cmd: "startConsuming", Path: "steps/*/*", ID: 4},
		},
	)
}

func TestConsumerWithAPIToken(t *testing.T) {
	server, commands := newFakeMaster(t, "Bearer s3cr3t")
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	consumer, err := Dial(ctx, server.URL, BearerAuthHeader("s3cr3t"), false)
	require.NoError(t, err)
	defer consumer.Close()

	require.NoError(t, consumer.Ping(ctx))
	requireCommands(ctx, t, commands, []command{{Cmd: "ping", ID: 1}})
}

func TestDialError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := Dial(context.Background(), server.URL, nil, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "received 404")
}
