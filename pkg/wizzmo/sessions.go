package wizzmo

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// ListInbox lists the sessions visible in mode: the student's own sessions,
// or a mentor's assigned and open-pool ones.
func (c *Client) ListInbox(ctx context.Context, mode string) ([]Session, error) {
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	var out []Session
	if err := c.get(ctx, "/sessions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var out Session
	if err := c.get(ctx, "/sessions/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.transition(ctx, id, "accept")
}

func (c *Client) DeclineSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.transition(ctx, id, "decline")
}

func (c *Client) ResolveSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.transition(ctx, id, "resolve")
}

func (c *Client) transition(ctx context.Context, id uuid.UUID, action string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/sessions/"+id.String()+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RateSession rates a resolved session 1..5. Only the student may rate, once.
func (c *Client) RateSession(ctx context.Context, id uuid.UUID, rating int, feedback string) (*Session, error) {
	body := map[string]interface{}{"session_id": id, "rating": rating, "feedback": feedback}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/rpc/update_mentor_rating", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
