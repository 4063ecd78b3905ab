package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/predict"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

func staticFactory(probability float64) ControllerFactory {
	return func() *submission.Controller {
		return submission.New(submission.PredictorFunc(
			func(ctx context.Context, payload indicators.Payload) (*predict.Prediction, error) {
				return &predict.Prediction{Probability: probability}, nil
			}))
	}
}

func TestSessions_CreateAndGet(t *testing.T) {
	sessions := NewSessions(staticFactory(1), time.Minute)
	defer sessions.CloseAll()

	a := sessions.Create()
	b := sessions.Create()
	if a.ID == b.ID {
		t.Fatal("sessions should get distinct ids")
	}
	if a.Controller == b.Controller {
		t.Fatal("sessions should not share a controller")
	}

	got, ok := sessions.Get(a.ID)
	if !ok || got != a {
		t.Errorf("Get(%s) = (%v, %v), want the created session", a.ID, got, ok)
	}
	if _, ok := sessions.Get("missing"); ok {
		t.Error("Get should fail for an unknown id")
	}
	if sessions.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sessions.Len())
	}
}

func TestSessions_DefaultTTL(t *testing.T) {
	sessions := NewSessions(staticFactory(1), 0)
	if sessions.TTL() != DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", sessions.TTL(), DefaultSessionTTL)
	}
}

func TestSessions_SweepClosesIdle(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(staticFactory(1), 10*time.Minute)
	sessions.now = func() time.Time { return now }
	defer sessions.CloseAll()

	idle := sessions.Create()
	now = now.Add(6 * time.Minute)
	active := sessions.Create()

	now = now.Add(6 * time.Minute)
	// touching keeps the second session alive
	sessions.Get(active.ID)

	if n := sessions.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := sessions.Get(idle.ID); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := sessions.Get(active.ID); !ok {
		t.Error("active session should survive")
	}

	if _, err := idle.Controller.Submit(context.Background()); !errors.Is(err, submission.ErrClosed) {
		t.Errorf("Submit on swept session error = %v, want ErrClosed", err)
	}
}

func TestSessions_FromRequest(t *testing.T) {
	sessions := NewSessions(staticFactory(1), time.Minute)
	defer sessions.CloseAll()

	rec := httptest.NewRecorder()
	first := sessions.FromRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value != first.ID {
		t.Fatalf("cookies = %v, want %s=%s", cookies, SessionCookie, first.ID)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	again := sessions.FromRequest(rec, req)

	if again != first {
		t.Error("cookie should select the existing session")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing session should not set a new cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	rec = httptest.NewRecorder()
	if fresh := sessions.FromRequest(rec, req); fresh == first || fresh.ID == "stale" {
		t.Error("unknown cookie should start a new session")
	}
}

func TestSessions_Lookup(t *testing.T) {
	sessions := NewSessions(staticFactory(1), time.Minute)
	defer sessions.CloseAll()

	if _, ok := sessions.Lookup(httptest.NewRequest(http.MethodGet, "/ws", nil)); ok {
		t.Error("Lookup without cookie should fail")
	}
	if sessions.Len() != 0 {
		t.Error("Lookup must not create sessions")
	}

	sess := sessions.Create()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})
	if got, ok := sessions.Lookup(req); !ok || got != sess {
		t.Error("Lookup should find the session named by the cookie")
	}
}
