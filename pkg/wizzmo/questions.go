package wizzmo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

func (c *Client) ListFeed(ctx context.Context, q FeedQuery) (*Feed, error) {
	params := url.Values{}
	if q.CategoryId != nil {
		params.Set("category", q.CategoryId.String())
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	var out Feed
	if err := c.get(ctx, "/questions/feed", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error) {
	var out Question
	if err := c.get(ctx, "/questions/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AskQuestion posts to the public pool, or privately to MentorIds when set.
func (c *Client) AskQuestion(ctx context.Context, in AskInput) (*Asked, error) {
	var out Asked
	if err := c.do(ctx, http.MethodPost, "/questions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vote casts "up" or "down". Repeating the current vote clears it.
func (c *Client) Vote(ctx context.Context, questionID uuid.UUID, voteType string) (*VoteResult, error) {
	var out VoteResult
	body := map[string]string{"vote_type": voteType}
	if err := c.do(ctx, http.MethodPost, "/questions/"+questionID.String()+"/vote", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, questionID uuid.UUID) ([]Comment, error) {
	var out []Comment
	if err := c.get(ctx, "/questions/"+questionID.String()+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, questionID uuid.UUID, body string) (*Comment, error) {
	var out Comment
	if err := c.do(ctx, http.MethodPost, "/questions/"+questionID.String()+"/comments", map[string]string{"body": body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
