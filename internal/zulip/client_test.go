package zulip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func longIntro(name string) string {
	return "<p>Hi, I'm " + name + "! " + strings.Repeat("I love programming and music. ", 25) + "</p>"
}

func messagesJSON(msgs []Message) string {
	b, _ := json.Marshal(map[string]any{
		"result":   "success",
		"msg":      "",
		"messages": msgs,
	})
	return string(b)
}

func TestGetMessages(t *testing.T) {
	var gotQuery map[string]string
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/messages" {
			t.Errorf("path = %q, want /api/v1/messages", r.URL.Path)
		}
		gotUser, _, _ = r.BasicAuth()
		gotQuery = map[string]string{
			"anchor":     r.URL.Query().Get("anchor"),
			"num_before": r.URL.Query().Get("num_before"),
			"num_after":  r.URL.Query().Get("num_after"),
			"narrow":     r.URL.Query().Get("narrow"),
		}
		w.Write([]byte(messagesJSON([]Message{
			{SenderFullName: "Ada", Content: "<p>hello</p>"},
		})))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot@example.com", "secret")
	msgs, err := c.GetMessages(context.Background(), "97 batch", "Introductions! 👋", 500)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderFullName != "Ada" {
		t.Errorf("messages = %v, want one from Ada", msgs)
	}

	if gotUser != "bot@example.com" {
		t.Errorf("basic auth user = %q, want bot@example.com", gotUser)
	}
	if gotQuery["anchor"] != "newest" || gotQuery["num_before"] != "500" || gotQuery["num_after"] != "0" {
		t.Errorf("query = %v, want anchor=newest num_before=500 num_after=0", gotQuery)
	}
	if !strings.Contains(gotQuery["narrow"], "97 batch") || !strings.Contains(gotQuery["narrow"], "Introductions") {
		t.Errorf("narrow = %q, should carry channel and topic", gotQuery["narrow"])
	}
}

func TestGetMessagesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": "error", "msg": "Invalid API key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot@example.com", "bad")
	_, err := c.GetMessages(context.Background(), "ch", "t", 10)
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v, want API error surfaced", err)
	}
}

// TestGetIntros verifies short messages are filtered, HTML is stripped,
// and the newest message per sender wins.
func TestGetIntros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesJSON([]Message{
			{SenderFullName: "Ada", Content: longIntro("Ada, the earlier one")},
			{SenderFullName: "Bob", Content: "<p>+1 welcome!</p>"},
			{SenderFullName: "Ada", Content: longIntro("Ada, the newer one")},
		})))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot@example.com", "secret")
	intros, err := c.GetIntros(context.Background(), "ch", "t", 10)
	if err != nil {
		t.Fatalf("GetIntros: %v", err)
	}

	if len(intros) != 1 {
		t.Fatalf("intros = %v, want just Ada (Bob's reply is too short)", intros)
	}
	intro, ok := intros["Ada"]
	if !ok {
		t.Fatal("Ada missing from intros")
	}
	if !strings.Contains(intro, "Ada, the newer one") {
		t.Errorf("intro = %q, want the newest message to win", intro)
	}
	if strings.Contains(intro, "<p>") {
		t.Errorf("intro = %q, HTML should be stripped", intro)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"paragraphs",
			"<p>first</p><p>second</p>",
			"first\nsecond",
		},
		{
			"inline markup flattened",
			"<p>I love <strong>rust</strong> and <a href=\"x\">music</a></p>",
			"I love rust and music",
		},
		{
			"list items",
			"<ul><li>one</li><li>two</li></ul>",
			"one\ntwo",
		},
		{
			"blank lines collapsed",
			"<div><p>a</p></div><div><p>b</p></div>",
			"a\nb",
		},
		{
			"plain text",
			"no markup at all",
			"no markup at all",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
