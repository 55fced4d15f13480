package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gorilla/csrf"

	"journal/auth"
	"journal/config"
	"journal/logger"
	"journal/store"
)

// newProtectedApp wraps the router in the same CSRF middleware main uses.
func newProtectedApp(t *testing.T, cfg config.Config) (*httptest.Server, *store.Store) {
	t.Helper()

	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sessions := auth.NewManager("test-session-key", false)
	h := New(cfg, st, sessions, logger.New("test"))

	csrfMiddleware := csrf.Protect(
		[]byte("01234567890123456789012345678901"),
		csrf.Secure(false),
		csrf.Path("/"),
	)

	// httptest.NewServer serves plain HTTP; without this flag the
	// middleware assumes TLS and rejects every http:// referer.
	protected := csrfMiddleware(h.Routes())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	}))
	t.Cleanup(srv.Close)
	return srv, st
}

var csrfTokenPattern = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

func TestPostWithoutCSRFTokenRejected(t *testing.T) {
	srv, st := newProtectedApp(t, config.Config{AppName: "TestJournal"})

	resp, err := http.PostForm(srv.URL+"/register", url.Values{
		"username":  {"adamkielar"},
		"email":     {"adam@test.pl"},
		"password":  {"adam"},
		"password2": {"adam"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for forged submission, got %d", resp.StatusCode)
	}

	if taken, _ := st.UsernameTaken(context.Background(), "adamkielar"); taken {
		t.Error("Forged submission must not be processed")
	}
}

func TestPostWithCSRFTokenAccepted(t *testing.T) {
	srv, st := newProtectedApp(t, config.Config{AppName: "TestJournal"})
	client := newClient(t)

	// Fetch the form to obtain a token bound to the client's cookie.
	_, body := get(t, client, srv.URL+"/register")
	match := csrfTokenPattern.FindStringSubmatch(body)
	if match == nil {
		t.Fatal("Registration form is missing the anti-forgery token field")
	}

	postForm(t, client, srv.URL+"/register", url.Values{
		"gorilla.csrf.Token": {match[1]},
		"username":           {"adamkielar"},
		"email":              {"adam@test.pl"},
		"password":           {"adam"},
		"password2":          {"adam"},
	})

	if taken, _ := st.UsernameTaken(context.Background(), "adamkielar"); !taken {
		t.Error("Token-bearing submission should be processed")
	}
}

var captchaImagePattern = regexp.MustCompile(`src="/captcha/([a-zA-Z0-9_-]+)\.png"`)

func TestRegisterCaptcha(t *testing.T) {
	// Captcha enabled, CSRF left off to isolate the captcha check.
	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{AppName: "TestJournal", Captcha: true}
	sessions := auth.NewManager("test-session-key", false)
	h := New(cfg, st, sessions, logger.New("test"))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	client := newClient(t)

	_, body := get(t, client, srv.URL+"/register")
	match := captchaImagePattern.FindStringSubmatch(body)
	if match == nil {
		t.Fatal("Registration form should embed a captcha image")
	}

	// The challenge image must actually be served.
	resp, err := client.Get(srv.URL + "/captcha/" + match[1] + ".png")
	if err != nil {
		t.Fatal(err)
	}
	img, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(img) == 0 {
		t.Errorf("Expected captcha image, got status %d with %d bytes", resp.StatusCode, len(img))
	}

	// A wrong solution blocks the registration.
	_, body = postForm(t, client, srv.URL+"/register", url.Values{
		"username":         {"adamkielar"},
		"email":            {"adam@test.pl"},
		"password":         {"adam"},
		"password2":        {"adam"},
		"captcha_id":       {match[1]},
		"captcha_solution": {"000000"},
	})
	if !strings.Contains(body, "The numbers you typed don&#39;t match the image.") &&
		!strings.Contains(body, "The numbers you typed don't match the image.") {
		t.Error("Expected captcha error on the form")
	}
	if taken, _ := st.UsernameTaken(context.Background(), "adamkielar"); taken {
		t.Error("Registration must not proceed with a failed captcha")
	}

	// The captcha gate runs before field validation: a failed challenge
	// re-renders with the captcha error alone, even for blank fields.
	_, body = postForm(t, client, srv.URL+"/register", url.Values{
		"captcha_id":       {"stale-id"},
		"captcha_solution": {"000000"},
	})
	if !strings.Contains(body, "The numbers you typed don&#39;t match the image.") &&
		!strings.Contains(body, "The numbers you typed don't match the image.") {
		t.Error("Expected captcha error for the failed challenge")
	}
	if strings.Contains(body, "This field is required.") {
		t.Error("Field validation must not run when the captcha fails")
	}
}
