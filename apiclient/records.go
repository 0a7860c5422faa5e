package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/care-portal/apimodel"
)

const (
	recordsRoot = "/api"
	usersPath   = "/admin/users"
)

// ListOptions is an offset/limit window. Zero values let the server choose.
type ListOptions struct {
	Offset int
	Limit  int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

func recordPath(kind string, id ...string) string {
	p, _ := url.JoinPath(recordsRoot, append([]string{kind}, id...)...)
	return p
}

func (c *Client) ListRecords(ctx context.Context, kind string, opts ListOptions) (*apimodel.Page[apimodel.Record], error) {
	var out apimodel.Page[apimodel.Record]
	err := c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: recordPath(kind), Query: opts.query()}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRecord(ctx context.Context, kind, id string) (*apimodel.Record, error) {
	var out apimodel.Record
	if err := c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: recordPath(kind, id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRecord(ctx context.Context, kind string, fields map[string]any) (*apimodel.Record, error) {
	var out apimodel.Record
	err := c.DoJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   recordPath(kind),
		Body:   apimodel.RecordInput{Fields: fields},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRecord(ctx context.Context, kind, id string, fields map[string]any) (*apimodel.Record, error) {
	var out apimodel.Record
	err := c.DoJSON(ctx, &Request{
		Method: http.MethodPut,
		Path:   recordPath(kind, id),
		Body:   apimodel.RecordInput{Fields: fields},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, kind, id string) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodDelete, Path: recordPath(kind, id)})
	return err
}

// ListUsers is admin only; other roles get a 403 APIError.
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (*apimodel.Page[apimodel.Identity], error) {
	var out apimodel.Page[apimodel.Identity]
	err := c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: usersPath, Query: opts.query()}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser is admin only.
func (c *Client) CreateUser(ctx context.Context, req apimodel.CreateUserRequest) (*apimodel.Identity, error) {
	var out apimodel.Identity
	if err := c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: usersPath, Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserBlocked is admin only. Blocking ends the user's session at its next
// refresh.
func (c *Client) SetUserBlocked(ctx context.Context, userID string, blocked bool) (*apimodel.Identity, error) {
	p, _ := url.JoinPath(usersPath, userID, "blocked")
	var out apimodel.Identity
	err := c.DoJSON(ctx, &Request{Method: http.MethodPut, Path: p, Body: apimodel.BlockUserRequest{Blocked: blocked}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
