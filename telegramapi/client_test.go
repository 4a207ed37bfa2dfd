package telegramapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", "@testchannel")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	return c, srv
}

func TestSendPhoto(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendPhoto") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "@testchannel" {
			t.Errorf("chat_id = %q", got)
		}
		if got := r.FormValue("parse_mode"); got != "HTML" {
			t.Errorf("parse_mode = %q", got)
		}
		f, _, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("photo part missing: %v", err)
		}
		defer f.Close()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":4242}}`))
	})

	id, err := c.SendPhoto(context.Background(), []byte("jpegdata"), "caption")
	if err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	if id != 4242 {
		t.Errorf("message id = %d, want 4242", id)
	}
}

func TestSendPhotoNotOK(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})
	if _, err := c.SendPhoto(context.Background(), []byte("x"), "c"); err == nil {
		t.Fatal("want error when api reports not ok")
	} else if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error should carry api description, got %v", err)
	}
}

func TestEditCaption(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/editMessageCaption") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("message_id"); got != "77" {
			t.Errorf("message_id = %q, want 77", got)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	})
	if err := c.EditCaption(context.Background(), 77, "updated"); err != nil {
		t.Fatalf("EditCaption: %v", err)
	}
}

func TestEditCaptionFailures(t *testing.T) {
	t.Run("zero message id", func(t *testing.T) {
		c := NewClient("t", "c")
		if err := c.EditCaption(context.Background(), 0, "x"); err == nil {
			t.Fatal("want error for zero message id")
		}
	})
	t.Run("api rejects edit", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"message to edit not found"}`))
		})
		if err := c.EditCaption(context.Background(), 5, "x"); err == nil {
			t.Fatal("want error when edit rejected")
		}
	})
}
