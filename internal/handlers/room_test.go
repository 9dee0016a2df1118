// internal/handlers/room_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palacegame/palace/internal/auth"
	"github.com/palacegame/palace/internal/engine"
	"github.com/palacegame/palace/internal/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	require.NoError(t, auth.Init())

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	hub := NewHub(logger)
	manager := room.NewManager(room.NewMemoryStore(), engine.StandardRules(), logger, hub.Publish, nil)
	srv := NewServer(manager, hub, logger)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestCreateJoinStartFlow(t *testing.T) {
	ts := newTestServer(t)

	var created membershipResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "ann", "passcode": "sekrit"}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, created.RoomID, 6)
	require.NotEmpty(t, created.Token)
	assert.Equal(t, []string{"ann"}, created.Players)

	// Wrong passcode is refused.
	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "bob", "passcode": "nope"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var joined membershipResponse
	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "bob", "passcode": "sekrit"}, &joined)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.ElementsMatch(t, []string{"ann", "bob"}, joined.Players)

	// Only the creator may start; the caller is whoever the token names.
	resp = doJSON(t, http.MethodPut, ts.URL+"/room/"+created.RoomID+"/start", joined.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var out engine.Outcome
	resp = doJSON(t, http.MethodPut, ts.URL+"/room/"+created.RoomID+"/start", created.Token, nil, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "start", out.Command)

	// Each player sees their own dealt hand.
	var view engine.View
	resp = doJSON(t, http.MethodGet, ts.URL+"/game/"+created.RoomID+"/state", created.Token, nil, &view)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, engine.PhaseSwap, view.Phase)
	assert.Len(t, view.Hand, engine.DealHandSize)
}

func TestCommandsRequireSessionToken(t *testing.T) {
	ts := newTestServer(t)

	var created membershipResponse
	doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "ann"}, &created)

	// No token at all.
	resp := doJSON(t, http.MethodPut, ts.URL+"/room/"+created.RoomID+"/start", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, ts.URL+"/game/"+created.RoomID+"/drawCard", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/game/"+created.RoomID+"/state", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A forged token fails signature verification.
	resp = doJSON(t, http.MethodPut, ts.URL+"/room/"+created.RoomID+"/start",
		created.Token+"x", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestKickAndLeaveUseTokenIdentity(t *testing.T) {
	ts := newTestServer(t)

	var created, joined membershipResponse
	doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "ann"}, &created)
	doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "bob"}, &joined)

	// Bob cannot kick, whatever the body claims.
	resp := doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/removePlayer",
		joined.Token, map[string]string{"username": "ann"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/removePlayer",
		created.Token, map[string]string{"username": "bob"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Ann leaves; the emptied room is gone.
	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/leave",
		created.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "cal"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/room/ZZZZZZ/join", "",
		map[string]string{"username": "bob"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRoomRequiresUsername(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameCommandsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var created, joined membershipResponse
	doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "ann"}, &created)
	doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "bob"}, &joined)
	doJSON(t, http.MethodPut, ts.URL+"/room/"+created.RoomID+"/start", created.Token, nil, nil)

	// Drawing before the table locks in is a phase violation.
	resp := doJSON(t, http.MethodPut, ts.URL+"/game/"+created.RoomID+"/drawCard",
		created.Token, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for _, token := range []string{created.Token, joined.Token} {
		resp = doJSON(t, http.MethodPut, ts.URL+"/game/"+created.RoomID+"/ready",
			token, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var out engine.Outcome
	resp = doJSON(t, http.MethodPut, ts.URL+"/game/"+created.RoomID+"/drawCard",
		created.Token, nil, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out.Drawn)

	// The drawn card landed in the token holder's hand, nobody else's.
	var view engine.View
	doJSON(t, http.MethodGet, ts.URL+"/game/"+created.RoomID+"/state", created.Token, nil, &view)
	assert.Len(t, view.Hand, engine.DealHandSize+1)
	doJSON(t, http.MethodGet, ts.URL+"/game/"+created.RoomID+"/state", joined.Token, nil, &view)
	assert.Len(t, view.Hand, engine.DealHandSize)
}

func TestDeleteGameCreatorOnly(t *testing.T) {
	ts := newTestServer(t)

	var created, joined membershipResponse
	doJSON(t, http.MethodPost, ts.URL+"/room/create", "",
		map[string]string{"username": "ann"}, &created)
	doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "bob"}, &joined)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/game/"+created.RoomID, joined.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/game/"+created.RoomID, created.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/room/"+created.RoomID+"/join", "",
		map[string]string{"username": "cal"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusForFailure(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForFailure(engine.NotFound))
	assert.Equal(t, http.StatusForbidden, statusForFailure(engine.Forbidden))
	assert.Equal(t, http.StatusConflict, statusForFailure(engine.PhaseViolation))
	assert.Equal(t, http.StatusConflict, statusForFailure(engine.ResourceExhausted))
	assert.Equal(t, http.StatusBadRequest, statusForFailure(engine.InvalidSelection))
	assert.Equal(t, http.StatusInternalServerError, statusForFailure(engine.PersistenceFailure))
}
