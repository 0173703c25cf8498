package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"resty.dev/v3"
)

type Client struct {
	c *resty.Client
}

// NewClient talks to the viewer listening on the unix socket at path.
func NewClient(path string) *Client {
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	})

	client.SetBaseURL("http://glance")
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "glance")

	return &Client{c: client}
}

func (c *Client) Close() error { return c.c.Close() }

func (c *Client) SendCommand(cmd Command) (*Response, error) {
	result := Response{}

	response, err := c.c.R().SetBody(cmd).SetResult(&result).SetError(&result).Post("/command")
	if err != nil {
		return nil, err
	}

	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("error sending %s command: %s: %s", cmd.Type, response.Status(), result.Message)
	}

	return &result, nil
}

func (c *Client) Status() (*StatusResponse, error) {
	result := StatusResponse{}

	response, err := c.c.R().SetResult(&result).Get("/status")
	if err != nil {
		return nil, err
	}

	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("error getting status: %s", response.Status())
	}

	return &result, nil
}

// SendCommand sends cmd to the viewer on the default socket.
func SendCommand(cmd Command) (*Response, error) {
	c := NewClient(SocketPath())
	defer c.Close()
	return c.SendCommand(cmd)
}

func SendStatus() (*StatusResponse, error) {
	c := NewClient(SocketPath())
	defer c.Close()
	return c.Status()
}

func SendLoad(path string) error {
	_, err := SendCommand(Command{Type: CommandLoad, Args: []string{path}})
	return err
}

func Send(t CommandType) error {
	_, err := SendCommand(Command{Type: t})
	return err
}
