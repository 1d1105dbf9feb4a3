package live

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Message is a single event published by the master, e.g. a build record
// under the key "builds/42/update".
type Message struct {
	Key  string          `json:"k"`
	Body json.RawMessage `json:"m"`
}

// Path returns the components of the message's key.
func (m Message) Path() []string {
	return strings.Split(m.Key, "/")
}

// Event returns the last component of the message's key, e.g. "update" or
// "finished".
func (m Message) Event() string {
	path := m.Path()
	return path[len(path)-1]
}

// ErrCommand represents the master rejecting a command sent over the
// websocket.
type ErrCommand struct {
	ID     int64
	Code   int
	Reason string
}

func (e *ErrCommand) Error() string {
	return fmt.Sprintf(
		"command %d failed with code %d: %s",
		e.ID,
		e.Code,
		e.Reason,
	)
}

type command struct {
	Cmd  string `json:"cmd"`
	Path string `json:"path,omitempty"`
	ID   int64  `json:"_id"`
}

// frame is anything the master may send: either a reply to a command or an
// event.
type frame struct {
	ID    *int64          `json:"_id"`
	Code  int             `json:"code"`
	Error string          `json:"error"`
	Key   string          `json:"k"`
	Body  json.RawMessage `json:"m"`
}

// Consumer is a connection to a master's live update stream.
type Consumer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	nextID  int64
}

// BasicAuthHeader returns a header carrying HTTP basic credentials, for use
// with Dial.
func BasicAuthHeader(username, password string) http.Header {
	header := http.Header{}
	if username == "" {
		return header
	}
	header.Set(
		"Authorization",
		fmt.Sprintf(
			"Basic %s",
			base64.StdEncoding.EncodeToString(
				[]byte(fmt.Sprintf("%s:%s", username, password)),
			),
		),
	)
	return header
}

// BearerAuthHeader returns a header carrying an API token, for use with Dial.
func BearerAuthHeader(token string) http.Header {
	header := http.Header{}
	if token == "" {
		return header
	}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return header
}

// StreamURL returns the websocket URL of the live update stream of the master
// whose web root is apiAddress.
func StreamURL(apiAddress string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(apiAddress, "/"))
	if err != nil {
		return "", errors.Wrapf(err, "error parsing API address %q", apiAddress)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf(
			"unsupported scheme %q in API address %q",
			u.Scheme,
			apiAddress,
		)
	}
	u.Path = fmt.Sprintf("%s/ws", u.Path)
	return u.String(), nil
}

// Dial connects to the live update stream of the master whose web root is
// apiAddress.
func Dial(
	ctx context.Context,
	apiAddress string,
	header http.Header,
	allowInsecure bool,
) (*Consumer, error) {
	streamURL, err := StreamURL(apiAddress)
	if err != nil {
		return nil, err
	}
	dialer := *websocket.DefaultDialer
	dialer.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: allowInsecure, // nolint: gosec
	}
	conn, resp, err := dialer.DialContext(ctx, streamURL, header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(
				err,
				"error connecting to %s: received %d",
				streamURL,
				resp.StatusCode,
			)
		}
		return nil, errors.Wrapf(err, "error connecting to %s", streamURL)
	}
	return &Consumer{conn: conn}, nil
}

func (c *Consumer) send(ctx context.Context, cmd string, path string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.nextID++
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return errors.Wrap(err, "error setting write deadline")
		}
		defer c.conn.SetWriteDeadline(time.Time{}) // nolint: errcheck
	}
	if err := c.conn.WriteJSON(
		command{
			Cmd:  cmd,
			Path: path,
			ID:   c.nextID,
		},
	); err != nil {
		return errors.Wrapf(err, "error sending %s command", cmd)
	}
	return nil
}

// Subscribe asks the master to start publishing events whose keys match
// path, e.g. "builds/*/*".
func (c *Consumer) Subscribe(ctx context.Context, path string) error {
	return c.send(ctx, "startConsuming", path)
}

// Unsubscribe asks the master to stop publishing events whose keys match
// path.
func (c *Consumer) Unsubscribe(ctx context.Context, path string) error {
	return c.send(ctx, "stopConsuming", path)
}

// Ping checks that the master is still answering commands.
func (c *Consumer) Ping(ctx context.Context) error {
	return c.send(ctx, "ping", "")
}

// Receive starts delivering events. Rejected commands are reported on the
// error channel without ending the stream; a broken connection is reported
// there and ends it.
func (c *Consumer) Receive(ctx context.Context) (<-chan Message, <-chan error) {
	msgCh := make(chan Message)
	errCh := make(chan error)
	go c.receive(ctx, msgCh, errCh)
	return msgCh, errCh
}

func (c *Consumer) receive(
	ctx context.Context,
	msgCh chan<- Message,
	errCh chan<- error,
) {
	for {
		f := frame{}
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case errCh <- errors.Wrap(err, "error reading from live stream"):
			case <-ctx.Done():
			}
			return
		}
		if f.Key != "" {
			select {
			case msgCh <- Message{Key: f.Key, Body: f.Body}:
			case <-ctx.Done():
				return
			}
			continue
		}
		if f.ID != nil && f.Code != http.StatusOK {
			select {
			case errCh <- &ErrCommand{ID: *f.ID, Code: f.Code, Reason: f.Error}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close closes the connection, which also ends any stream started by
// Receive.
func (c *Consumer) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	// The master may already be gone; the close frame is best effort.
	_ = c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return c.conn.Close()
}
