package wizzmo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListMessages returns the session's messages ordered by seq. afterSeq > 0
// returns only newer ones.
func (c *Client) ListMessages(ctx context.Context, sessionID uuid.UUID, afterSeq int64) ([]Message, error) {
	q := url.Values{}
	if afterSeq > 0 {
		q.Set("after_seq", strconv.FormatInt(afterSeq, 10))
	}
	var out []Message
	if err := c.get(ctx, "/sessions/"+sessionID.String()+"/messages", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID uuid.UUID, text string, replyTo *uuid.UUID) (*Message, error) {
	body := map[string]interface{}{"content": text}
	if replyTo != nil {
		body["reply_to_id"] = replyTo
	}
	var out Message
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID.String()+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMedia(ctx context.Context, sessionID uuid.UUID, in MediaUpload) (*Message, error) {
	fields := map[string]string{"kind": string(in.Kind)}
	if in.Duration > 0 {
		fields["duration"] = strconv.Itoa(in.Duration)
	}
	if in.Caption != "" {
		fields["caption"] = in.Caption
	}
	if in.ReplyToId != nil {
		fields["reply_to_id"] = in.ReplyToId.String()
	}
	var out Message
	if err := c.upload(ctx, "/sessions/"+sessionID.String()+"/messages/media", "file", in.Filename, in.Data, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EditMessage(ctx context.Context, id uuid.UUID, text string) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPatch, "/messages/"+id.String(), map[string]string{"content": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnsendMessage deletes the caller's own message. The server refuses it
// after five minutes.
func (c *Client) UnsendMessage(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+id.String(), nil, nil)
}

func (c *Client) ToggleReaction(ctx context.Context, id uuid.UUID, emoji string) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPost, "/messages/"+id.String()+"/reactions", map[string]string{"emoji": emoji}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead flags the other participant's messages as read.
func (c *Client) MarkRead(ctx context.Context, sessionID uuid.UUID) (*ReadResult, error) {
	var out ReadResult
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID.String()+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
