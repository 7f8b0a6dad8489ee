package peerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// HTTPClient is the production Client: it talks to peers over plain JSON
// HTTP, exactly as described by the wire protocol.
type HTTPClient struct {
	serverPeerID uint8
	peerURLs     map[uint8]string
	http         *http.Client
}

// NewHTTPClient builds a Client that authenticates itself to peers with
// serverPeerID and addresses them via peerURLs.
func NewHTTPClient(serverPeerID uint8, peerURLs map[uint8]string) *HTTPClient {
	return &HTTPClient{
		serverPeerID: serverPeerID,
		peerURLs:     peerURLs,
		http:         &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPClient) urlFor(peerID uint8) (string, error) {
	url, ok := c.peerURLs[peerID]
	if !ok {
		return "", &Error{PeerID: peerID, msg: "unknown peer id"}
	}
	return url, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("peerclient: encoding request body: %w", err)
		}
		reader = *bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &reader)
	if err != nil {
		return nil, fmt.Errorf("peerclient: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PEER-ID", strconv.Itoa(int(c.serverPeerID)))

	return c.http.Do(req)
}

func (c *HTTPClient) NotifyNewProcess(ctx context.Context, peerID uint8, processID uuid.UUID) error {
	url, err := c.urlFor(peerID)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/additions/%s/initiate", url, processID), nil)
	if err != nil {
		return &Error{PeerID: peerID, msg: "notifying peer of new process", err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &Error{PeerID: peerID, msg: fmt.Sprintf("peer returned HTTP %d", resp.StatusCode)}
	}
	return nil
}

func (c *HTTPClient) FetchProcessProgress(ctx context.Context, peerID uint8, processID uuid.UUID) (addition.Progress, error) {
	url, err := c.urlFor(peerID)
	if err != nil {
		return addition.Progress{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/additions/%s/progress", url, processID), nil)
	if err != nil {
		return addition.Progress{}, &Error{PeerID: peerID, msg: "fetching process progress", err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return addition.Progress{}, &Error{PeerID: peerID, msg: fmt.Sprintf("peer returned HTTP %d", resp.StatusCode)}
	}

	var progress addition.Progress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return addition.Progress{}, &Error{PeerID: peerID, msg: "decoding process progress", err: err}
	}
	return progress, nil
}

func (c *HTTPClient) SendShare(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	return c.send(ctx, peerID, processID, addition.ReceiveRequestBody{
		Type: addition.PayloadTypeShare,
		Data: addition.ReceivePayload{Value: value},
	})
}

func (c *HTTPClient) SendSharesSum(ctx context.Context, peerID uint8, processID uuid.UUID, value uint64) error {
	return c.send(ctx, peerID, processID, addition.ReceiveRequestBody{
		Type: addition.PayloadTypeSharesSum,
		Data: addition.ReceivePayload{Value: value},
	})
}

func (c *HTTPClient) send(ctx context.Context, peerID uint8, processID uuid.UUID, body addition.ReceiveRequestBody) error {
	url, err := c.urlFor(peerID)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/additions/%s/receive", url, processID), body)
	if err != nil {
		return &Error{PeerID: peerID, msg: "sending envelope to peer", err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &Error{PeerID: peerID, msg: fmt.Sprintf("peer returned HTTP %d", resp.StatusCode)}
	}
	return nil
}
