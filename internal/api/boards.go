package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Board represents a workspace board
type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	PostCount int    `json:"post_count"`
}

// Post represents a board post
type Post struct {
	ID          string       `json:"id"`
	BoardID     string       `json:"board_id"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Attachment represents a file attached to a post
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// postPage is a paginated post listing response
type postPage struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// ListBoards returns all boards visible to the current user
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/boards", nil)
	if err != nil {
		return nil, err
	}

	var boards []Board
	if err := parseResponse(resp, &boards); err != nil {
		return nil, err
	}

	return boards, nil
}

// ListPosts returns one page of posts for a board. Pages are 1-based.
// The returned page is the server's, which may differ from the request
// when the server clamps an out-of-range page.
func (c *Client) ListPosts(ctx context.Context, boardID string, page int) ([]Post, int, int, error) {
	if page < 1 {
		page = 1
	}

	path := fmt.Sprintf("/api/v1/boards/%s/posts?page=%d", url.PathEscape(boardID), page)
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, 0, 0, err
	}

	var pageResp postPage
	if err := parseResponse(resp, &pageResp); err != nil {
		return nil, 0, 0, err
	}

	return pageResp.Posts, pageResp.Page, pageResp.TotalPages, nil
}

// GetPost returns a single post with its content and attachments
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/posts/"+url.PathEscape(postID), nil)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := parseResponse(resp, &post); err != nil {
		return nil, err
	}

	return &post, nil
}

// DeletePost removes a post. The server enforces board delete permission;
// the client gates the affordance through the session store.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	resp, err := c.doRequest(ctx, "DELETE", "/api/v1/posts/"+url.PathEscape(postID), nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
