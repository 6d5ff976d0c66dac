package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/charetteworks/charette/internal/session"
	"github.com/charetteworks/charette/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	repo := store.NewMemory()
	svc := session.New(repo, 0)
	r := chi.NewRouter()
	NewCharetteHandler(NewHandler(svc), nil).RegisterRoutes(r)
	NewHealthHandler(repo).RegisterHealth(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func createCharette(t *testing.T, r http.Handler, title string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/charettes", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, w.Code)
	var c domain.Charette
	decodeBody(t, w, &c)
	require.NotEmpty(t, c.ID)
	return c.ID
}

func TestCreateAndGetCharette(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "Downtown Plaza")

	w := doJSON(t, r, http.MethodGet, "/api/charettes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var c domain.Charette
	decodeBody(t, w, &c)
	assert.Equal(t, "Downtown Plaza", c.Title)
	assert.Equal(t, 0, c.CurrentPhaseIndex)
	require.Len(t, c.Phases, 6)
	assert.Equal(t, "Introduction", c.Phases[0].Name)
	assert.Equal(t, "Reporting", c.Phases[5].Name)
}

func TestNotFoundShape(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/charettes/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Charette not found", body["error"])
}

func TestBreakoutRoomRoundRobinScenario(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/participants", map[string]string{"userName": name})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/breakout-rooms", map[string]interface{}{
		"roomCount": 2,
		"questions": []string{"Q1"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var rooms []*domain.BreakoutRoom
	decodeBody(t, w, &rooms)
	require.Len(t, rooms, 2)
	assert.Equal(t, "room-1", rooms[0].ID)
	assert.Equal(t, []string{"Alice", "Carol"}, rooms[0].Participants)
	assert.Equal(t, []string{"Bob"}, rooms[1].Participants)
}

func TestBreakoutRoomValidationAndNotFound(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/breakout-rooms", map[string]int{"roomCount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing rooms share the same 404 body as missing charettes.
	w = doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/breakout-rooms/room-1/join", map[string]string{"userName": "Alice"})
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Charette not found", body["error"])
}

func TestMessageRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/messages", map[string]string{
		"text":     "hello",
		"userName": "Alice",
		"roomId":   "main",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var posted domain.Message
	decodeBody(t, w, &posted)
	assert.NotEmpty(t, posted.ID)
	assert.False(t, posted.Timestamp.IsZero())

	w = doJSON(t, r, http.MethodGet, "/api/charettes/"+id+"/messages?roomId=main", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var msgs []*domain.Message
	decodeBody(t, w, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "Alice", msgs[0].UserName)
	assert.Equal(t, posted.ID, msgs[0].ID)
}

func TestMessageAfterFilter(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/messages", map[string]string{"text": "one", "userName": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	var first domain.Message
	decodeBody(t, w, &first)

	time.Sleep(2 * time.Millisecond)
	w = doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/messages", map[string]string{"text": "two", "userName": "A"})
	require.Equal(t, http.StatusCreated, w.Code)

	after := first.Timestamp.Format(time.RFC3339Nano)
	w = doJSON(t, r, http.MethodGet, "/api/charettes/"+id+"/messages?after="+after, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var msgs []*domain.Message
	decodeBody(t, w, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Text)

	w = doJSON(t, r, http.MethodGet, "/api/charettes/"+id+"/messages?after=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhaseEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	var resp struct {
		CurrentPhaseIndex int          `json:"currentPhaseIndex"`
		Phase             domain.Phase `json:"phase"`
	}

	w := doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/phase", map[string]string{"action": "next"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, 1, resp.CurrentPhaseIndex)
	assert.Equal(t, "Data Collection", resp.Phase.Name)

	w = doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/phase", map[string]string{"action": "previous"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, 0, resp.CurrentPhaseIndex)
	assert.Equal(t, "Introduction", resp.Phase.Name)

	// Retreat at the floor stays put.
	w = doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/phase", map[string]string{"action": "previous"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, 0, resp.CurrentPhaseIndex)
}

func TestRemoveParticipantPurgesRooms(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	for _, name := range []string{"Alice", "Bob"} {
		doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/participants", map[string]string{"userName": name})
	}
	doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/breakout-rooms", map[string]int{"roomCount": 1})

	w := doJSON(t, r, http.MethodDelete, "/api/charettes/"+id+"/participants/Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var c domain.Charette
	decodeBody(t, w, &c)
	require.Len(t, c.Participants, 1)
	assert.Equal(t, "Bob", c.Participants[0].UserName)
	require.Len(t, c.Rooms, 1)
	assert.Equal(t, []string{"Bob"}, c.Rooms[0].Participants)
}

func TestDeleteCharetteRemovesMessages(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")
	doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/messages", map[string]string{"text": "hi", "userName": "A"})

	w := doJSON(t, r, http.MethodDelete, "/api/charettes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/charettes/"+id+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createCharette(t, r, "S")

	for _, name := range []string{"Alice", "Bob"} {
		doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/participants", map[string]string{"userName": name})
	}
	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodPost, "/api/charettes/"+id+"/messages", map[string]string{
			"text":     fmt.Sprintf("message number %d about the garden", i),
			"userName": "Alice",
		})
	}

	w := doJSON(t, r, http.MethodGet, "/api/charettes/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rep struct {
		MessageCount     int `json:"messageCount"`
		ParticipantCount int `json:"participantCount"`
	}
	decodeBody(t, w, &rep)
	assert.Equal(t, 3, rep.MessageCount)
	assert.Equal(t, 2, rep.ParticipantCount)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decodeBody(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
}
