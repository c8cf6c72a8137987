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

// Package client provides interfaces for interacting with the litrift server
// and the data structures for responses
package client

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"golang.org/x/time/rate"
)

var (
	// ErrContentTypeMismatch is an error for a response that is not JSON
	ErrContentTypeMismatch = errors.New("content type mismatch")
	// ErrTransport marks a request that did not get a response from the server
	ErrTransport = errors.New("server unreachable")
	// ErrNoSession is returned for authorized requests made while logged out
	ErrNoSession = errors.New("no session key found")
)

// DeviceHeader carries the device id on every request
const DeviceHeader = "X-Device-ID"

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the server rejected the credentials
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if the resource does not exist on the server
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if err carries an authentication failure
func IsUnauthorized(err error) bool {
	var he *HTTPError
	if stdErrors.As(err, &he) {
		return he.IsUnauthorized()
	}

	return stdErrors.Is(err, ErrNoSession)
}

// IsNotFound returns true if err carries a 404 response
func IsNotFound(err error) bool {
	var he *HTTPError
	return stdErrors.As(err, &he) && he.IsNotFound()
}

// IsTransport returns true if the request never got a response
func IsTransport(err error) bool {
	return stdErrors.Is(err, ErrTransport)
}

const contentTypeApplicationJSON = "application/json"

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting. Every
// request is abandoned after the given timeout.
func NewRateLimitedHTTPClient(timeout time.Duration) *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func getHTTPClient(ctx context.LitriftCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{Timeout: ctx.RequestTimeout}
}

func getReq(ctx context.LitriftCtx, path, method string, body io.Reader) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Client-Version", ctx.Version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}
	if ctx.DeviceID != "" {
		req.Header.Set(DeviceHeader, ctx.DeviceID)
	}
	if ctx.SessionKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", ctx.SessionKey))
	}

	return req, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// checkRespErr returns an HTTPError if the given http response indicates an error
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	msg := strings.TrimRight(string(body), "\n")
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    msg,
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, contentTypeApplicationJSON) {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint and decodes
// the JSON response into dest, if given
func doReq(ctx context.LitriftCtx, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshalling payload")
		}
		body = bytes.NewReader(b)
	}

	req, err := getReq(ctx, path, method, body)
	if err != nil {
		return errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(ctx)
	res, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(ErrTransport, "making http request: %s", err.Error())
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return errors.Wrap(err, "server responded with an error")
	}

	if dest == nil {
		return nil
	}
	if err = checkContentType(res); err != nil {
		return errors.Wrap(err, "unexpected Content-Type")
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding the response body")
	}

	return nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint as a user,
// with the appropriate headers. The given path should include the preceding slash.
func doAuthorizedReq(ctx context.LitriftCtx, method, path string, payload, dest interface{}) error {
	if ctx.SessionKey == "" {
		return ErrNoSession
	}

	return doReq(ctx, method, path, payload, dest)
}

// HealthResp is the response of the health endpoint
type HealthResp struct {
	Status string `json:"status"`
}

// CheckHealth reports whether the server is reachable
func CheckHealth(ctx context.LitriftCtx) (HealthResp, error) {
	var ret HealthResp
	err := doReq(ctx, "GET", "/health", nil, &ret)

	return ret, err
}

// RegisterDeviceParams announces this device to the server
type RegisterDeviceParams struct {
	DeviceID   string `json:"device_id"`
	Name       string `json:"name"`
	AppVersion string `json:"app_version"`
}

// Device is a device registered on the server
type Device struct {
	DeviceID   string     `json:"device_id"`
	Name       string     `json:"name"`
	AppVersion string     `json:"app_version"`
	LastSyncAt *time.Time `json:"last_sync_at"`
}

// RegisterDevice registers this device for the current user
func RegisterDevice(ctx context.LitriftCtx, p RegisterDeviceParams) (Device, error) {
	var ret Device
	if err := doAuthorizedReq(ctx, "POST", "/v1/devices", p, &ret); err != nil {
		return ret, errors.Wrap(err, "registering device")
	}

	return ret, nil
}

// PushParams is a document change sent to the server
type PushParams struct {
	DocID       string     `json:"doc_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	BaseVersion int        `json:"base_version"`
	DeviceID    string     `json:"device_id"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

// Push statuses
const (
	PushApplied  = "applied"
	PushConflict = "conflict"
	PushError    = "error"
)

// PushResult is the outcome of a push for one document
type PushResult struct {
	DocID      string    `json:"doc_id"`
	Status     string    `json:"status"`
	Version    int       `json:"version"`
	ConflictID string    `json:"conflict_id"`
	Conflict   *Conflict `json:"conflict"`
	Error      string    `json:"error"`
}

// PushDocument pushes one document change
func PushDocument(ctx context.LitriftCtx, p PushParams) (PushResult, error) {
	var ret PushResult
	if err := doAuthorizedReq(ctx, "POST", "/v1/sync/push", p, &ret); err != nil {
		return ret, errors.Wrapf(err, "pushing %s", p.DocID)
	}

	return ret, nil
}

type pushBatchPayload struct {
	Documents []PushParams `json:"documents"`
}

// PushBatchResp is the response of a batch push
type PushBatchResp struct {
	Results   []PushResult `json:"results"`
	Synced    int          `json:"synced"`
	Conflicts int          `json:"conflicts"`
}

// PushBatch pushes document changes in one request. Results come back in
// the order of the changes.
func PushBatch(ctx context.LitriftCtx, docs []PushParams) (PushBatchResp, error) {
	var ret PushBatchResp
	if err := doAuthorizedReq(ctx, "POST", "/v1/sync/push/batch", pushBatchPayload{Documents: docs}, &ret); err != nil {
		return ret, errors.Wrap(err, "pushing batch")
	}

	return ret, nil
}

// Document is the server copy of a document
type Document struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Version    int       `json:"version"`
	LastEdited time.Time `json:"last_edited"`
	DeviceID   string    `json:"device_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetDocument fetches the server copy of a document
func GetDocument(ctx context.LitriftCtx, docID string) (Document, error) {
	var ret Document
	if err := doAuthorizedReq(ctx, "GET", "/v1/sync/documents/"+url.PathEscape(docID), nil, &ret); err != nil {
		return ret, errors.Wrapf(err, "getting document %s", docID)
	}

	return ret, nil
}

// ListDocumentsParams filters ListDocuments
type ListDocumentsParams struct {
	SinceVersion int
	Since        *time.Time
}

// ListDocumentsResp is the response of the documents endpoint
type ListDocumentsResp struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// ListDocuments fetches every document of the user
func ListDocuments(ctx context.LitriftCtx, p ListDocumentsParams) (ListDocumentsResp, error) {
	q := url.Values{}
	if p.SinceVersion > 0 {
		q.Set("since_version", fmt.Sprintf("%d", p.SinceVersion))
	}
	if p.Since != nil {
		q.Set("since", p.Since.UTC().Format(time.RFC3339))
	}

	path := "/v1/sync/documents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var ret ListDocumentsResp
	if err := doAuthorizedReq(ctx, "GET", path, nil, &ret); err != nil {
		return ret, errors.Wrap(err, "listing documents")
	}

	return ret, nil
}

// Conflict is a conflict record on the server
type Conflict struct {
	ConflictID       string     `json:"conflict_id"`
	DocID            string     `json:"doc_id"`
	LocalVersion     int        `json:"local_version"`
	CloudVersion     int        `json:"cloud_version"`
	LocalDeviceID    string     `json:"local_device_id"`
	CloudDeviceID    string     `json:"cloud_device_id"`
	LocalTimestamp   time.Time  `json:"local_timestamp"`
	CloudTimestamp   time.Time  `json:"cloud_timestamp"`
	LocalPreview     string     `json:"local_preview"`
	CloudPreview     string     `json:"cloud_preview"`
	Status           string     `json:"status"`
	ResolutionChoice string     `json:"resolution_choice"`
	ResolvedAt       *time.Time `json:"resolved_at"`
	Suggested        string     `json:"suggested"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ListConflictsParams filters ListConflicts
type ListConflictsParams struct {
	// Status is pending, resolved or all. The server defaults to pending.
	Status string
	DocID  string
}

// ListConflictsResp is the response of the conflicts endpoint
type ListConflictsResp struct {
	Conflicts []Conflict `json:"conflicts"`
	Total     int        `json:"total"`
}

// ListConflicts fetches the conflicts of the user
func ListConflicts(ctx context.LitriftCtx, p ListConflictsParams) (ListConflictsResp, error) {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.DocID != "" {
		q.Set("doc_id", p.DocID)
	}

	path := "/v1/sync/conflicts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var ret ListConflictsResp
	if err := doAuthorizedReq(ctx, "GET", path, nil, &ret); err != nil {
		return ret, errors.Wrap(err, "listing conflicts")
	}

	return ret, nil
}

// GetConflict fetches one conflict
func GetConflict(ctx context.LitriftCtx, conflictID string) (Conflict, error) {
	var ret Conflict
	if err := doAuthorizedReq(ctx, "GET", "/v1/sync/conflicts/"+url.PathEscape(conflictID), nil, &ret); err != nil {
		return ret, errors.Wrapf(err, "getting conflict %s", conflictID)
	}

	return ret, nil
}

// ResolveParams is a resolution choice. Content and Title carry the local
// copy when the choice is local.
type ResolveParams struct {
	ConflictID string  `json:"conflict_id"`
	Choice     string  `json:"choice"`
	Content    *string `json:"content,omitempty"`
	Title      *string `json:"title,omitempty"`
	DeviceID   string  `json:"device_id"`
}

// ResolveResp is the converged state after a resolution
type ResolveResp struct {
	Conflict        Conflict `json:"conflict"`
	Document        Document `json:"document"`
	AlreadyResolved bool     `json:"already_resolved"`
}

// ResolveConflict sends a resolution choice
func ResolveConflict(ctx context.LitriftCtx, p ResolveParams) (ResolveResp, error) {
	var ret ResolveResp
	if err := doAuthorizedReq(ctx, "POST", "/v1/sync/resolve", p, &ret); err != nil {
		return ret, errors.Wrapf(err, "resolving conflict %s", p.ConflictID)
	}

	return ret, nil
}

// StatusResp is the sync status of the user on the server
type StatusResp struct {
	DocumentCount int64      `json:"document_count"`
	ConflictCount int64      `json:"conflict_count"`
	LastSync      *time.Time `json:"last_sync"`
	CurrentTime   time.Time  `json:"current_time"`
}

// GetStatus fetches the sync status
func GetStatus(ctx context.LitriftCtx) (StatusResp, error) {
	var ret StatusResp
	if err := doAuthorizedReq(ctx, "GET", "/v1/sync/status", nil, &ret); err != nil {
		return ret, errors.Wrap(err, "getting sync status")
	}

	return ret, nil
}

// Signout ends the session of the context on the server
func Signout(ctx context.LitriftCtx) error {
	if err := doAuthorizedReq(ctx, "DELETE", "/v1/session", nil, nil); err != nil {
		return errors.Wrap(err, "deleting session")
	}

	return nil
}
