package controllers_test

import (
	"Dinder/middleware"
	session_models "Dinder/models/session"
	"Dinder/routes"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"Dinder/services/node"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenProvider struct{}

func (brokenProvider) FetchCandidates(context.Context, session_models.Query) ([]session_models.Candidate, error) {
	return nil, &discovery.ProviderError{Provider: "feed", Err: errors.New("timeout")}
}

// client replays the cookie session between requests like a browser
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newClient(t *testing.T, provider discovery.Provider) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := bus.NewHub()
	n := node.New(func() (bus.Transport, error) { return hub.Attach("dinder"), nil }, provider, "session")
	t.Cleanup(func() { n.Close() })

	router := gin.New()
	middleware.SetUpMiddleware(router, "test-secret")
	routes.SetupRoutes(router, n)
	return &client{t: t, router: router}
}

func (cl *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]interface{}) {
	cl.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = cookies
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func phaseOf(response map[string]interface{}) string {
	s, _ := response["session"].(map[string]interface{})
	phase, _ := s["phase"].(string)
	return phase
}

func TestPing(t *testing.T) {
	cl := newClient(t, nil)
	w, response := cl.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", response["message"])
}

func TestHostAndDriveSession(t *testing.T) {
	deck := []session_models.Candidate{
		{ID: "c1", Name: "Casa Lac", PriceTier: "$$", Rating: 4.6, Tags: []string{}},
		{ID: "c2", Name: "Bodega", PriceTier: "$$$$", Rating: 4.9, Tags: []string{}},
	}
	cl := newClient(t, discovery.NewStaticProvider(deck))

	w, response := cl.do(http.MethodPost, "/session/host", gin.H{"name": "Hana"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "host", response["role"])
	assert.Equal(t, "lobby", phaseOf(response))

	w, _ = cl.do(http.MethodPost, "/session/host", gin.H{"name": "Hana"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, response = cl.do(http.MethodPost, "/session/round", gin.H{"location": "Zaragoza"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, response["error"])

	w, response = cl.do(http.MethodPost, "/session/location", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "location-setup", phaseOf(response))

	w, _ = cl.do(http.MethodPost, "/session/round", gin.H{"location": "Zaragoza", "prices": []string{"$$$$$"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, response = cl.do(http.MethodPost, "/session/round", gin.H{"location": "Zaragoza", "prices": []string{"$$"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "swiping", phaseOf(response))
	candidates := response["session"].(map[string]interface{})["candidates"].([]interface{})
	assert.Len(t, candidates, 1)

	w, response = cl.do(http.MethodPost, "/session/reject", gin.H{"candidate_id": "c1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"c1"}, response["rejected"])

	w, _ = cl.do(http.MethodPost, "/session/approve", gin.H{"candidate_id": "c2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = cl.do(http.MethodPost, "/session/approve", gin.H{"candidate_id": "c1"})
	require.Equal(t, http.StatusOK, w.Code)

	// A lone host matches on its own approval
	w, response = cl.do(http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "matched", phaseOf(response))
	assert.Equal(t, "c1", response["match"].(map[string]interface{})["id"])

	w, response = cl.do(http.MethodPost, "/session/keep-swiping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "swiping", phaseOf(response))
	assert.Nil(t, response["match"])

	w, _ = cl.do(http.MethodDelete, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = cl.do(http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRoutesNeedParticipantCookie(t *testing.T) {
	cl := newClient(t, nil)

	w, _ := cl.do(http.MethodPost, "/session/host", gin.H{"name": "Hana"})
	require.Equal(t, http.StatusOK, w.Code)

	cl.cookies = nil
	w, response := cl.do(http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not part of a session", response["error"])
}

func TestProviderFailureIsBadGateway(t *testing.T) {
	cl := newClient(t, brokenProvider{})

	cl.do(http.MethodPost, "/session/host", gin.H{"name": "Hana"})
	cl.do(http.MethodPost, "/session/location", nil)

	w, response := cl.do(http.MethodPost, "/session/round", gin.H{"location": "Atlantis"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, response["error"], "timeout")

	w, response = cl.do(http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "location-setup", phaseOf(response))
}

func TestJoinValidation(t *testing.T) {
	cl := newClient(t, nil)

	w, _ := cl.do(http.MethodPost, "/session/join", gin.H{"name": "Gus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = cl.do(http.MethodPost, "/session/join", gin.H{"name": "Gus", "code": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, response := cl.do(http.MethodPost, "/session/join", gin.H{"name": "Gus", "code": "din-4004"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest", response["role"])
	assert.Equal(t, "pending", response["joinState"])
	assert.Equal(t, "DIN-4004", response["session"].(map[string]interface{})["code"])

	// Guests cannot drive the phase
	w, _ = cl.do(http.MethodPost, "/session/location", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
