package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	tmsync "github.com/corvuschain/corvus-light/libs/sync"
)

const (
	protoHTTP  = "http"
	protoHTTPS = "https"

	defaultTimeout = 10 * time.Second
)

// Client is a JSON-RPC client which sends a single request per HTTP POST and
// decodes the response envelope. It is safe for concurrent use.
type Client struct {
	address string
	client  *http.Client

	mtx       tmsync.Mutex
	nextReqID int
}

// New returns a Client pointed at the given remote address. The address may
// omit the scheme, in which case http is assumed.
func New(remote string) (*Client, error) {
	address, err := normalizeAddress(remote)
	if err != nil {
		return nil, err
	}
	return &Client{
		address: address,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// NewWithHTTPClient returns a Client using a caller-supplied http.Client,
// e.g. one with a custom timeout or transport.
func NewWithHTTPClient(remote string, client *http.Client) (*Client, error) {
	if client == nil {
		return nil, errors.New("nil http.Client provided")
	}
	address, err := normalizeAddress(remote)
	if err != nil {
		return nil, err
	}
	return &Client{address: address, client: client}, nil
}

// Remote returns the address this client talks to.
func (c *Client) Remote() string {
	return c.address
}

// Call issues method with the given named params and unmarshals the result
// into result, which must be a pointer. A non-nil *RPCError from the server
// is returned as the error.
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}, result interface{}) error {
	c.mtx.Lock()
	c.nextReqID++
	reqID := c.nextReqID
	c.mtx.Unlock()

	request, err := NewRPCRequest(reqID, method, params)
	if err != nil {
		return errors.Wrap(err, "failed to encode params")
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	httpRequest, err := http.NewRequest(http.MethodPost, c.address, bytes.NewReader(requestBytes))
	if err != nil {
		return errors.Wrap(err, "request setup failed")
	}
	httpRequest = httpRequest.WithContext(ctx)
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.client.Do(httpRequest)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()

	responseBytes, err := ioutil.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var response RPCResponse
	if err := json.Unmarshal(responseBytes, &response); err != nil {
		return errors.Wrapf(err, "error unmarshalling response (%d)", httpResponse.StatusCode)
	}
	if response.Error != nil {
		return response.Error
	}
	if response.ID != request.ID {
		return fmt.Errorf("wrong response ID: got %d, expected %d", response.ID, request.ID)
	}

	if result != nil {
		if err := json.Unmarshal(response.Result, result); err != nil {
			return errors.Wrap(err, "error unmarshalling result")
		}
	}
	return nil
}

// normalizeAddress verifies the remote and defaults the scheme to http.
func normalizeAddress(remote string) (string, error) {
	if !strings.Contains(remote, "://") {
		remote = protoHTTP + "://" + remote
	}

	u, err := url.Parse(remote)
	if err != nil {
		return "", errors.Wrapf(err, "invalid remote %s", remote)
	}
	if u.Scheme != protoHTTP && u.Scheme != protoHTTPS {
		return "", fmt.Errorf("invalid remote scheme %q (expected http or https)", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in remote %s", remote)
	}
	return u.String(), nil
}
