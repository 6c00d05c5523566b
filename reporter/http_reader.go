// Reader is a client of the http reporter,
// used by the status command and by tests.

package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/TEENet-io/mintwrap-go/status"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
	client     *http.Client
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
		client:     http.DefaultClient,
	}
}

func (hr *HttpReader) url(route string) string {
	return "http://" + hr.serverIP + ":" + hr.serverPort + route
}

func (hr *HttpReader) GetHello() (string, error) {
	resp, err := hr.client.Get(hr.url(ROUTE_HELLO))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetStatus fetches what the user currently sees.
func (hr *HttpReader) GetStatus() (*status.Snapshot, error) {
	resp, err := hr.client.Get(hr.url(ROUTE_STATUS))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected http status: %s", resp.Status)
	}

	var snapshot status.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Post sends body as json to route and returns the http status code
// with the raw response.
func (hr *HttpReader) Post(route string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	resp, err := hr.client.Post(hr.url(route), "application/json", reader)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}
