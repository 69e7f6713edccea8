package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intraworks/workbench/internal/errors"
)

func TestClient_Login(t *testing.T) {
	t.Run("success captures user, token metadata, and cookies", func(t *testing.T) {
		accessExpiry := time.Now().Add(10 * time.Minute).UnixMilli()
		refreshExpiry := time.Now().Add(7 * 24 * time.Hour).UnixMilli()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "POST", r.Method)
			require.Equal(t, "/api/v1/auth/login", r.URL.Path)
			require.NotEmpty(t, r.Header.Get("X-Request-ID"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "hong", req["id"])

			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "opaque", HttpOnly: true})
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user": map[string]any{
					"id":   "hong",
					"name": "Hong Gildong",
					"role": "admin",
					"permissions": []map[string]any{
						{"board_id": "notice", "can_read": true, "can_write": true, "can_delete": true},
					},
				},
				"token_info": map[string]int64{
					"access_token_expiry":  accessExpiry,
					"refresh_token_expiry": refreshExpiry,
				},
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		user, tokenInfo, err := client.Login(context.Background(), "hong", "secret")
		require.NoError(t, err)

		assert.Equal(t, "hong", user.ID)
		assert.Equal(t, "admin", user.Role)
		require.Len(t, user.Permissions, 1)
		assert.True(t, user.Permissions[0].CanDelete)

		require.NotNil(t, tokenInfo)
		assert.Equal(t, accessExpiry, tokenInfo.AccessExpiresAt.UnixMilli())
		assert.Equal(t, refreshExpiry, tokenInfo.RefreshExpiresAt.UnixMilli())
	})

	t.Run("invalid credentials surface the server message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "ID or password is incorrect"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, _, err := client.Login(context.Background(), "hong", "wrong")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAuthInvalidCredentials, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "ID or password is incorrect")
	})

	t.Run("missing user is an incomplete response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, _, err := client.Login(context.Background(), "hong", "secret")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAuthIncompleteResponse, errors.CodeOf(err))
	})
}

func TestClient_CookieJarPersistsSession(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "opaque", Path: "/"})
			_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": "u1"}})
		case "/api/v1/users/me":
			if c, err := r.Cookie("access_token"); err == nil && c.Value == "opaque" {
				sawCookie = true
				_ = json.NewEncoder(w).Encode(map[string]any{"id": "u1", "name": "User"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	_, _, err := client.Login(ctx, "u1", "pw")
	require.NoError(t, err)

	user, err := client.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, sawCookie, "session cookie should ride on subsequent requests")
}

func TestClient_RefreshToken(t *testing.T) {
	t.Run("expired refresh cookie fails with refresh code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "refresh token expired"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, _, err := client.RefreshToken(context.Background())

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAuthRefreshFailed, errors.CodeOf(err))
	})

	t.Run("2xx without token metadata is incomplete", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": "u1"}})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, _, err := client.RefreshToken(context.Background())

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAuthIncompleteResponse, errors.CodeOf(err))
	})
}

func TestClient_GetCurrentUser_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no session"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetCurrentUser(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthUnauthorized, errors.CodeOf(err))
}

func TestClient_ListPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/boards/notice/posts", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"posts": []map[string]any{
				{"id": "p1", "board_id": "notice", "title": "Welcome"},
			},
			"page":        2,
			"total_pages": 5,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	posts, page, totalPages, err := client.ListPosts(context.Background(), "notice", 2)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "Welcome", posts[0].Title)
	assert.Equal(t, 2, page)
	assert.Equal(t, 5, totalPages)
}

func TestClient_ListPostsReturnsServerPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server clamps out-of-range pages to the last page.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"posts":       []map[string]any{},
			"page":        5,
			"total_pages": 5,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, page, totalPages, err := client.ListPosts(context.Background(), "notice", 99)
	require.NoError(t, err)

	assert.Equal(t, 5, page)
	assert.Equal(t, 5, totalPages)
}

func TestClient_DeletePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "DELETE", r.Method)
		require.Equal(t, "/api/v1/posts/p-9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.DeletePost(context.Background(), "p-9"))
}

func TestClient_DeletePostForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "delete not allowed"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.DeletePost(context.Background(), "p-9")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAPIForbidden, errors.CodeOf(err))
}

func TestClient_UpdateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PUT", r.Method)
		require.Equal(t, "/api/v1/events/ev-1", r.URL.Path)

		var ev Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		_ = json.NewEncoder(w).Encode(ev)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	updated, err := client.UpdateEvent(context.Background(), Event{
		ID:    "ev-1",
		Title: "Sprint review",
		Start: start,
		End:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sprint review", updated.Title)
	assert.True(t, updated.Start.Equal(start))
}

func TestClient_FetchImage(t *testing.T) {
	t.Run("resolves relative URLs against base", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/files/diagram.png", r.URL.Path)
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		data, err := client.FetchImage(context.Background(), "/files/diagram.png")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	})

	t.Run("non-2xx is a viewer fetch error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.FetchImage(context.Background(), srv.URL+"/missing.png")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeViewerFetch, errors.CodeOf(err))
	})
}
