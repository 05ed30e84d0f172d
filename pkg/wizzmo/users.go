package wizzmo

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var out User
	if err := c.get(ctx, "/users/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, "/users/me", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetMode persists users.current_mode.
func (c *Client) SetMode(ctx context.Context, mode string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, "/users/me/mode", map[string]string{"mode": mode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadAvatar(ctx context.Context, filename string, data []byte) (*Avatar, error) {
	var out Avatar
	if err := c.upload(ctx, "/users/me/avatar", "avatar", filename, data, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the signed-in account and forgets the token.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/rpc/delete_account", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMentors returns mentors, optionally only those with the category slug
// in their expertise.
func (c *Client) ListMentors(ctx context.Context, category string) ([]Mentor, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var out []Mentor
	if err := c.get(ctx, "/mentors", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListFavorites(ctx context.Context) ([]Mentor, error) {
	var out []Mentor
	if err := c.get(ctx, "/mentors/favorites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddFavorite(ctx context.Context, mentorID uuid.UUID) (*FavoriteState, error) {
	var out FavoriteState
	if err := c.do(ctx, http.MethodPost, "/mentors/"+mentorID.String()+"/favorite", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, mentorID uuid.UUID) (*FavoriteState, error) {
	var out FavoriteState
	if err := c.do(ctx, http.MethodDelete, "/mentors/"+mentorID.String()+"/favorite", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMentorPass aggregates a mentor's card. uuid.Nil means the caller.
func (c *Client) GetMentorPass(ctx context.Context, mentorID uuid.UUID) (*MentorPass, error) {
	q := url.Values{}
	if mentorID != uuid.Nil {
		q.Set("mentor_id", mentorID.String())
	}
	var out MentorPass
	if err := c.get(ctx, "/rpc/mentor_pass", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
