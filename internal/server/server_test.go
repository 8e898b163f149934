package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	tokens "github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/services"
	"github.com/gravadigital/posterjudge-api/internal/storage/memory"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitializeWithWriter("fatal", io.Discard)
}

type apiFixture struct {
	t        *testing.T
	router   *gin.Engine
	verifier *tokens.Verifier
}

type user struct {
	id    uuid.UUID
	token string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{Environment: "test"}
	cfg.Auth.JWTSecret = "server-test-secret"
	cfg.Auth.Audience = "authenticated"
	cfg.AdminGrant.AllowedEmails = []string{"chair@example.org"}
	cfg.Objects.MaxPosterSize = 1 << 20
	cfg.CORS.AllowOrigins = []string{"https://judging.example.org"}
	cfg.CORS.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.CORS.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	store := memory.NewStore()
	posters := objects.NewDiskStore(t.TempDir(), "/uploads")
	verifier := tokens.NewVerifier(cfg)

	srv := New(cfg, Dependencies{
		Store:    store,
		Posters:  posters,
		Services: services.New(store, posters, cfg),
		Verifier: verifier,
	})
	return &apiFixture{t: t, router: srv.Router(), verifier: verifier}
}

func (f *apiFixture) user(email string) user {
	f.t.Helper()
	id := uuid.New()
	tok, err := f.verifier.Issue(&profile.Identity{UserID: id, Email: email}, time.Hour)
	require.NoError(f.t, err)
	return user{id: id, token: tok}
}

func (f *apiFixture) do(method, path string, u *user, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// expect asserts the status and decodes the envelope data into out
func (f *apiFixture) expect(w *httptest.ResponseRecorder, status int, out any) envelope {
	f.t.Helper()
	require.Equal(f.t, status, w.Code, w.Body.String())

	var env envelope
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(f.t, json.Unmarshal(env.Data, out))
	}
	return env
}

type idOnly struct {
	ID uuid.UUID `json:"id"`
}

func TestPing(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	env := f.expect(f.do(http.MethodGet, "/api/conferences", nil, nil), http.StatusUnauthorized, nil)
	assert.Equal(t, "missing_authorization", env.Kind)
}

func TestCORS(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("api preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/conferences", nil)
		req.Header.Set("Origin", "https://judging.example.org")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://judging.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("grant function keeps its own policy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/functions/grant-admin", nil)
		req.Header.Set("Origin", "https://elsewhere.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestJudgingFlow(t *testing.T) {
	f := newAPIFixture(t)

	chair := f.user("chair@example.org")
	judge := f.user("judge@example.org")
	other := f.user("other@example.org")

	// bootstrap the admin
	w := f.do(http.MethodPost, "/functions/grant-admin", &chair, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// first sight creates the profiles
	f.expect(f.do(http.MethodGet, "/api/me", &judge, nil), http.StatusOK, nil)
	f.expect(f.do(http.MethodGet, "/api/me", &other, nil), http.StatusOK, nil)

	env := f.expect(f.do(http.MethodPost, "/api/conferences", &judge, gin.H{
		"name": "Nope", "start_date": "2026-11-12", "end_date": "2026-11-13",
	}), http.StatusForbidden, nil)
	assert.Equal(t, "forbidden", env.Kind)

	var conf idOnly
	f.expect(f.do(http.MethodPost, "/api/conferences", &chair, gin.H{
		"name": "Student Poster Day", "start_date": "2026-11-12", "end_date": "2026-11-13",
	}), http.StatusCreated, &conf)
	base := "/api/conferences/" + conf.ID.String()

	f.expect(f.do(http.MethodPost, base+"/activate", &chair, nil), http.StatusOK, nil)
	var active idOnly
	f.expect(f.do(http.MethodGet, "/api/conferences/active", &judge, nil), http.StatusOK, &active)
	assert.Equal(t, conf.ID, active.ID)

	var clarity, method idOnly
	f.expect(f.do(http.MethodPost, base+"/criteria", &chair, gin.H{"name": "Clarity", "max_score": 10}), http.StatusCreated, &clarity)
	f.expect(f.do(http.MethodPost, base+"/criteria", &chair, gin.H{"name": "Method", "max_score": 5, "weight": 2}), http.StatusCreated, &method)

	var session idOnly
	f.expect(f.do(http.MethodPost, base+"/sessions", &chair, gin.H{
		"name":       "Morning posters",
		"start_time": "2026-11-12T09:00:00Z",
		"end_time":   "2026-11-12T11:00:00Z",
		"max_judges": 1,
	}), http.StatusCreated, &session)

	var proj idOnly
	f.expect(f.do(http.MethodPost, "/api/projects", &chair, gin.H{
		"title":      "Soil microbes under drought",
		"students":   []string{"Ana", "Luis"},
		"session_id": session.ID.String(),
	}), http.StatusCreated, &proj)

	// judges need the judge role before registering
	env = f.expect(f.do(http.MethodPost, "/api/sessions/"+session.ID.String()+"/judges", &judge, nil), http.StatusForbidden, nil)
	assert.Equal(t, "forbidden", env.Kind)

	for _, u := range []user{judge, other} {
		f.expect(f.do(http.MethodPost, "/api/admin/users/"+u.id.String()+"/roles", &chair, gin.H{"role": "judge"}), http.StatusCreated, nil)
	}

	f.expect(f.do(http.MethodPost, "/api/sessions/"+session.ID.String()+"/judges", &judge, nil), http.StatusCreated, nil)
	env = f.expect(f.do(http.MethodPost, "/api/sessions/"+session.ID.String()+"/judges", &other, nil), http.StatusConflict, nil)
	assert.Equal(t, "session_full", env.Kind)

	var reminders []map[string]any
	f.expect(f.do(http.MethodGet, "/api/me/reminders", &judge, nil), http.StatusOK, &reminders)
	assert.Len(t, reminders, 1)

	scorePath := "/api/projects/" + proj.ID.String() + "/evaluation/scores/"
	env = f.expect(f.do(http.MethodPut, scorePath+clarity.ID.String(), &judge, gin.H{"score": 11}), http.StatusBadRequest, nil)
	assert.Equal(t, "out_of_range_score", env.Kind)

	var ev struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	f.expect(f.do(http.MethodPut, scorePath+clarity.ID.String(), &judge, gin.H{"score": 8}), http.StatusOK, &ev)
	assert.Equal(t, "in_progress", ev.Status)
	f.expect(f.do(http.MethodPut, scorePath+method.ID.String(), &judge, gin.H{"score": 4}), http.StatusOK, &ev)
	assert.Equal(t, "completed", ev.Status)

	var total struct {
		Total   *float64 `json:"total_score"`
		Percent *float64 `json:"total_percent"`
		Status  string   `json:"status"`
	}
	f.expect(f.do(http.MethodGet, "/api/evaluations/"+ev.ID.String()+"/total", &judge, nil), http.StatusOK, &total)
	require.NotNil(t, total.Total)
	assert.InDelta(t, 0.8, *total.Total, 1e-9)
	assert.InDelta(t, 80.0, *total.Percent, 1e-9)
	assert.Equal(t, "completed", total.Status)

	// another judge cannot read it
	env = f.expect(f.do(http.MethodGet, "/api/evaluations/"+ev.ID.String(), &other, nil), http.StatusForbidden, nil)
	assert.Equal(t, "forbidden", env.Kind)

	var standings []struct {
		Rank      int      `json:"rank"`
		Title     string   `json:"title"`
		MeanTotal *float64 `json:"mean_total"`
	}
	f.expect(f.do(http.MethodGet, base+"/standings", &judge, nil), http.StatusOK, &standings)
	require.Len(t, standings, 1)
	assert.Equal(t, 1, standings[0].Rank)
	require.NotNil(t, standings[0].MeanTotal)
	assert.InDelta(t, 0.8, *standings[0].MeanTotal, 1e-9)

	t.Run("export", func(t *testing.T) {
		w := f.do(http.MethodGet, base+"/export.xlsx", &judge, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = f.do(http.MethodGet, base+"/export.xlsx", &chair, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "student-poster-day-results.xlsx")

		book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer book.Close()
		rows, err := book.GetRows(services.StandingsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Soil microbes under drought", rows[1][1])
	})

	t.Run("calendar", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/me/sessions.ics", &judge, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
		assert.Contains(t, w.Body.String(), "BEGIN:VEVENT")
		assert.Contains(t, w.Body.String(), "Morning posters")
	})

	t.Run("confirm registration", func(t *testing.T) {
		var me struct {
			ID uuid.UUID `json:"id"`
		}
		f.expect(f.do(http.MethodGet, "/api/me", &judge, nil), http.StatusOK, &me)

		var js struct {
			Confirmed bool `json:"confirmed"`
		}
		path := "/api/sessions/" + session.ID.String() + "/judges/" + me.ID.String() + "/confirm"
		f.expect(f.do(http.MethodPatch, path, &chair, nil), http.StatusOK, &js)
		assert.True(t, js.Confirmed)
	})

	t.Run("admin cannot drop own admin role", func(t *testing.T) {
		env := f.expect(f.do(http.MethodDelete, "/api/admin/users/"+chair.id.String()+"/roles/admin", &chair, nil), http.StatusForbidden, nil)
		assert.Equal(t, "forbidden", env.Kind)
	})
}

func TestPosterUpload(t *testing.T) {
	f := newAPIFixture(t)
	chair := f.user("chair@example.org")
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/functions/grant-admin", &chair, nil).Code)

	var proj idOnly
	f.expect(f.do(http.MethodPost, "/api/projects", &chair, gin.H{"title": "Bridges from paper"}), http.StatusCreated, &proj)

	upload := func(contentType string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="poster.pdf"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/projects/"+proj.ID.String()+"/poster", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+chair.token)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	env := f.expect(upload("text/plain", []byte("hello")), http.StatusBadRequest, nil)
	assert.Equal(t, "invalid_input", env.Kind)

	var p struct {
		PosterURL *string `json:"poster_url"`
	}
	f.expect(upload("application/pdf", []byte("%PDF-1.7 poster")), http.StatusCreated, &p)
	require.NotNil(t, p.PosterURL)
	assert.True(t, strings.HasPrefix(*p.PosterURL, "/uploads/posters/"+proj.ID.String()+"/"))

	w := f.do(http.MethodGet, *p.PosterURL, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.7 poster", w.Body.String())
}
