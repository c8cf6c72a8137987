/* Copyright 2025 LitRift Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package realtime subscribes a device to the conflict events of its user.
// The channel is a hint: when it is down the worker's conflict poll still
// finds every conflict.
package realtime

import (
	stdcontext "context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"nhooyr.io/websocket"
)

// Message types
const (
	TypeJoin     = "join"
	TypeJoined   = "joined"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeConflict = "sync:conflict"
	TypeError    = "error"
)

const (
	// DefaultBaseDelay is the first reconnect delay
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps the reconnect delay
	DefaultMaxDelay = 30 * time.Second
	// stableAfter is how long a connection must last for the backoff to reset
	stableAfter = time.Minute
	readLimit   = 1 << 16
)

// Envelope wraps every message on the channel
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConflictEvent is the payload of a sync:conflict message
type ConflictEvent struct {
	ConflictID     string    `json:"conflict_id"`
	DocID          string    `json:"doc_id"`
	LocalVersion   int       `json:"local_version"`
	CloudVersion   int       `json:"cloud_version"`
	LocalDevice    string    `json:"local_device"`
	CloudDevice    string    `json:"cloud_device"`
	LocalTimestamp time.Time `json:"local_timestamp"`
	CloudTimestamp time.Time `json:"cloud_timestamp"`
}

// Options configures a Subscriber
type Options struct {
	// OnConflict is called from the read loop for every conflict event
	OnConflict func(ConflictEvent)
	// OnJoined is called every time the subscriber joins its room
	OnJoined  func()
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// backoff computes exponential reconnect delays with jitter
type backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func (b *backoff) next() time.Duration {
	jitter := time.Duration(rand.Float64() * float64(b.base) * 0.5)
	delay := time.Duration(math.Min(
		float64(b.base)*math.Pow(2, float64(b.attempt))+float64(jitter),
		float64(b.max),
	))
	b.attempt++

	return delay
}

func (b *backoff) reset() {
	b.attempt = 0
}

// Subscriber keeps a connection to the realtime channel open, reconnecting
// with a bounded backoff
type Subscriber struct {
	url    string
	header http.Header
	opts   Options

	mu        sync.Mutex
	connected bool
}

// URL returns the websocket URL of the realtime channel under the API
// endpoint
func URL(apiEndpoint string) (string, error) {
	u, err := url.Parse(apiEndpoint)
	if err != nil {
		return "", errors.Wrapf(err, "parsing endpoint %s", apiEndpoint)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported endpoint scheme '%s'", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/sync/ws"

	return u.String(), nil
}

// New returns a subscriber for the session of the context
func New(ctx context.LitriftCtx, opts Options) (*Subscriber, error) {
	if ctx.SessionKey == "" {
		return nil, client.ErrNoSession
	}

	u, err := URL(ctx.APIEndpoint)
	if err != nil {
		return nil, err
	}

	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+ctx.SessionKey)
	header.Set(client.DeviceHeader, ctx.DeviceID)

	return &Subscriber{url: u, header: header, opts: opts}, nil
}

// Connected reports whether the subscriber has joined its room
func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = v
}

// Run connects and serves the channel until the context is canceled
func (s *Subscriber) Run(ctx stdcontext.Context) error {
	b := backoff{base: s.opts.BaseDelay, max: s.opts.MaxDelay}

	for {
		start := time.Now()
		err := s.serve(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(start) > stableAfter {
			b.reset()
		}

		delay := b.next()
		log.Debug("realtime channel closed, reconnecting in %s: %s\n", delay, err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func write(ctx stdcontext.Context, c *websocket.Conn, typ string) error {
	b, err := json.Marshal(Envelope{Type: typ})
	if err != nil {
		return errors.Wrapf(err, "marshalling %s", typ)
	}

	return c.Write(ctx, websocket.MessageText, b)
}

// serve holds one connection until it fails
func (s *Subscriber) serve(ctx stdcontext.Context) error {
	c, res, err := websocket.Dial(ctx, s.url, &websocket.DialOptions{HTTPHeader: s.header})
	if err != nil {
		if res != nil && res.StatusCode == http.StatusUnauthorized {
			return errors.Wrap(&client.HTTPError{StatusCode: res.StatusCode, Message: "unauthorized"}, "dialing")
		}
		return errors.Wrap(err, "dialing")
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(readLimit)

	if err := write(ctx, c, TypeJoin); err != nil {
		return errors.Wrap(err, "joining")
	}
	defer s.setConnected(false)

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return errors.Wrap(err, "reading")
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Debug("skipping malformed realtime message: %s\n", err)
			continue
		}

		s.dispatch(env)
	}
}

func (s *Subscriber) dispatch(env Envelope) {
	switch env.Type {
	case TypeJoined:
		s.setConnected(true)
		if s.opts.OnJoined != nil {
			s.opts.OnJoined()
		}
	case TypeConflict:
		var ev ConflictEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			log.Debug("skipping malformed conflict event: %s\n", err)
			return
		}
		if s.opts.OnConflict != nil {
			s.opts.OnConflict(ev)
		}
	case TypeError:
		log.Debug("realtime error: %s\n", string(env.Payload))
	case TypePong:
	default:
		log.Debug("skipping realtime message of type %s\n", env.Type)
	}
}
