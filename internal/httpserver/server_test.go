package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
	"github.com/robalobadob/crossplay/apps/go-client/internal/letters"
	"github.com/robalobadob/crossplay/apps/go-client/internal/prefs"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote/remotetest"
	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

func TestMain(m *testing.M) {
	if err := letters.Init(""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type harness struct {
	t      *testing.T
	ts     *httptest.Server
	fake   *remotetest.Fake
	prefs  *prefs.Store
	client *http.Client
}

func newHarness(t *testing.T, rack ...string) *harness {
	t.Helper()
	fake := remotetest.New(15, rack...)
	sessions := session.NewStore(fake, session.Options{})
	t.Cleanup(sessions.Close)

	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	srv := New(sessions, p, Options{JWTSecret: "test-secret", ClientOrigin: "http://ui.test"})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{t: t, ts: ts, fake: fake, prefs: p, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

// do sends a JSON request and decodes the JSON reply into out (if non-nil).
func (h *harness) do(method, path string, body any, out any) int {
	h.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rdr)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (h *harness) open(seat int, extra map[string]any) int {
	h.t.Helper()
	body := map[string]any{"gameId": "g1", "playerIndex": seat}
	for k, v := range extra {
		body[k] = v
	}
	return h.do(http.MethodPost, "/sessions", body, nil)
}

func (h *harness) command(path string, body any) commandRes {
	h.t.Helper()
	var res commandRes
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, path, body, &res))
	return res
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	var body map[string]any
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", nil, &body))
	assert.Equal(t, true, body["ok"])

	require.NoError(t, h.prefs.Close())
	body = nil
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/health", nil, &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "prefs_unavailable", body["error"])
}

func TestComposeRequiresSession(t *testing.T) {
	h := newHarness(t)
	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/compose/state", nil, &body))
	assert.Equal(t, "no_session", body["error"])
}

func TestCreateSession_Validation(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/sessions", map[string]any{"gameId": "g1"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/sessions", map[string]any{"playerIndex": 0}, nil))

	h.fake.Set(func(f *remotetest.Fake) { f.Err = remote.ErrNotFound })
	var body map[string]string
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/sessions", map[string]any{"gameId": "g1", "playerIndex": 0}, &body))
	assert.Equal(t, "game_not_found", body["error"])
}

func TestComposeAndSubmit(t *testing.T) {
	h := newHarness(t, "C", "A", "T")
	require.Equal(t, http.StatusCreated, h.open(0, map[string]any{"nickname": "ann"}))

	res := h.command("/compose/anchor", anchorReq{X: 7, Y: 7})
	assert.True(t, res.Applied)
	for _, i := range []string{"0", "1", "2"} {
		assert.True(t, h.command("/compose/rack/"+i, nil).Applied)
	}
	assert.False(t, h.command("/compose/rack/0", nil).Applied, "tile already used")

	var view session.View
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/compose/state", nil, &view))
	assert.Equal(t, []string{"C", "A", "T"}, view.Word)
	assert.Equal(t, compose.Row, view.Direction)
	assert.True(t, view.Verdict.OK)
	assert.Equal(t, "ann", view.Nickname)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/compose/submit", nil, &view))
	assert.Empty(t, view.Word)
	require.Len(t, h.fake.Moves, 1)
	assert.Equal(t, "CAT", h.fake.Moves[0].Word)
}

func TestSubmit_Errors(t *testing.T) {
	h := newHarness(t, "C", "A", "T")
	require.Equal(t, http.StatusCreated, h.open(0, nil))

	var body map[string]string
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodPost, "/compose/submit", nil, &body))
	assert.Equal(t, "nothing_to_submit", body["error"])

	h.command("/compose/anchor", anchorReq{X: 7, Y: 7})
	h.command("/compose/key", keyReq{Key: "c"})
	h.fake.Set(func(f *remotetest.Fake) { f.MoveResult = &remote.Result{Reason: "not a word"} })

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/compose/submit", nil, &body))
	assert.Equal(t, "rejected", body["error"])
	assert.Equal(t, "not a word", body["reason"])

	var view session.View
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/compose/state", nil, &view))
	assert.Equal(t, []string{"C"}, view.Word)
	assert.Equal(t, "not a word", view.LastError)
}

func TestKeyAndDrop(t *testing.T) {
	h := newHarness(t, "C", "A", "T")
	require.Equal(t, http.StatusCreated, h.open(0, nil))

	res := h.command("/compose/drop", compose.Drop{X: 3, Y: 4, Letter: "a"})
	require.True(t, res.Applied)
	require.NotNil(t, res.View.Anchor)
	assert.Equal(t, compose.Position{X: 3, Y: 4}, *res.View.Anchor)

	// Below the anchor fixes Column.
	res = h.command("/compose/drop", compose.Drop{X: 3, Y: 5, Letter: "t"})
	require.True(t, res.Applied)
	assert.Equal(t, compose.Column, res.View.Direction)

	assert.False(t, h.command("/compose/key", keyReq{Key: "1"}).Applied)
	assert.False(t, h.command("/compose/key", keyReq{Key: "Q"}).Applied)
	res = h.command("/compose/key", keyReq{Key: "c"})
	assert.True(t, res.Applied)
	assert.Equal(t, []string{"A", "T", "C"}, res.View.Word)

	res = h.command("/compose/backspace", nil)
	assert.Equal(t, []string{"A", "T"}, res.View.Word)
	res = h.command("/compose/clear", nil)
	assert.Empty(t, res.View.Word)
	assert.Nil(t, res.View.Anchor)
}

func TestDropBlankByRackIndex(t *testing.T) {
	h := newHarness(t, "?", "A")
	require.Equal(t, http.StatusCreated, h.open(0, nil))

	// A blank is not a tile letter, so it only goes through by index.
	assert.False(t, h.command("/compose/drop", compose.Drop{X: 7, Y: 7, Letter: "?"}).Applied)

	blank := 0
	res := h.command("/compose/drop", compose.Drop{X: 7, Y: 7, Letter: "?", RackIndex: &blank})
	require.True(t, res.Applied)
	assert.Equal(t, []string{"?"}, res.View.Word)

	// The index still has to match the letter.
	other := 1
	assert.False(t, h.command("/compose/drop", compose.Drop{X: 8, Y: 7, Letter: "?", RackIndex: &other}).Applied)
}

func TestDirectionRoutes(t *testing.T) {
	h := newHarness(t, "C", "A")
	require.Equal(t, http.StatusCreated, h.open(0, nil))
	h.command("/compose/anchor", anchorReq{X: 1, Y: 1})

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/compose/direction", directionReq{Direction: "diagonal"}, nil))

	res := h.command("/compose/direction", directionReq{Direction: "column"})
	assert.True(t, res.Applied)
	assert.Equal(t, compose.Column, res.View.Direction)
	res = h.command("/compose/direction/flip", nil)
	assert.Equal(t, compose.Row, res.View.Direction)
}

func TestExchangeRoutes(t *testing.T) {
	h := newHarness(t, "Q", "U", "Z")
	require.Equal(t, http.StatusCreated, h.open(0, nil))

	assert.True(t, h.command("/compose/exchange/start", nil).Applied)
	h.command("/compose/exchange/toggle/0", nil)
	res := h.command("/compose/exchange/toggle/2", nil)
	assert.Equal(t, []int{0, 2}, res.View.Exchange.Selection)
	assert.False(t, h.command("/compose/rack/1", nil).Applied, "rack input is off in exchange mode")

	var view session.View
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/compose/exchange/confirm", nil, &view))
	assert.False(t, view.Exchange.Active)
	require.Len(t, h.fake.Exchanges, 1)
	assert.Equal(t, []string{"Q", "Z"}, h.fake.Exchanges[0])

	var body map[string]string
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/compose/exchange/confirm", nil, &body))
	assert.Equal(t, "not_exchanging", body["error"])
}

func TestSkipAndRefresh(t *testing.T) {
	h := newHarness(t, "C")
	require.Equal(t, http.StatusCreated, h.open(0, nil))

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/compose/skip", nil, nil))
	assert.Equal(t, 1, h.fake.Skips)

	h.fake.Set(func(f *remotetest.Fake) { f.Current = 1 })
	var view session.View
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/compose/refresh", nil, &view))
	assert.False(t, view.YourTurn)

	var body map[string]string
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/compose/skip", nil, &body))
	assert.Equal(t, "not_your_turn", body["error"])
}

func TestSeatPIN(t *testing.T) {
	h := newHarness(t, "C")
	require.Equal(t, http.StatusCreated, h.open(1, map[string]any{"pin": "1234"}))

	var body map[string]string
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/sessions",
		map[string]any{"gameId": "g1", "playerIndex": 1, "pin": "0000"}, &body))
	assert.Equal(t, "seat_locked", body["error"])

	assert.Equal(t, http.StatusCreated, h.open(1, map[string]any{"pin": "1234"}))
}

func TestNicknames(t *testing.T) {
	h := newHarness(t, "C")
	require.Equal(t, http.StatusCreated, h.open(0, map[string]any{"nickname": "ann"}))

	var n prefs.Nickname
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/nicknames/g1/1", setNicknameReq{Nickname: "bob"}, &n))
	assert.Equal(t, "bob", n.Nickname)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/nicknames/other/1", setNicknameReq{Nickname: "x"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/nicknames/g1/0", setNicknameReq{Nickname: "  "}, nil))

	var list []prefs.Nickname
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/nicknames/g1", nil, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "ann", list[0].Nickname)
	assert.Equal(t, "bob", list[1].Nickname)

	// A later session for seat 1 picks up the cached nickname.
	var created createSessionRes
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/sessions",
		map[string]any{"gameId": "g1", "playerIndex": 1}, &created))
	assert.Equal(t, "bob", created.View.Nickname)
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t, "C")
	var created createSessionRes
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/sessions",
		map[string]any{"gameId": "g1", "playerIndex": 0}, &created))
	require.NotEmpty(t, created.Token)

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/sessions/current", nil, nil))

	// The cookie is gone; the old token names a forgotten session.
	req, err := http.NewRequest(http.MethodGet, h.ts.URL+"/compose/state", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+created.Token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "session_expired", body["error"])
}

func TestWebsocketPushesState(t *testing.T) {
	h := newHarness(t, "C", "A")
	var created createSessionRes
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/sessions",
		map[string]any{"gameId": "g1", "playerIndex": 0}, &created))

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/compose/ws"
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+created.Token)
	hdr.Set("Origin", "http://ui.test")
	conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), wsURL, hdr)
	require.NoError(t, err)
	defer conn.Close()

	var msg stateMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.Nil(t, msg.View.Anchor)

	h.command("/compose/anchor", anchorReq{X: 2, Y: 9})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.View.Anchor)
	assert.Equal(t, compose.Position{X: 2, Y: 9}, *msg.View.Anchor)
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	h := newHarness(t)
	var created createSessionRes
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/sessions",
		map[string]any{"gameId": "g1", "playerIndex": 0}, &created))

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/compose/ws"
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+created.Token)
	hdr.Set("Origin", "http://evil.test")
	_, res, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestLetters(t *testing.T) {
	h := newHarness(t)
	var body map[string][]string
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/letters", nil, &body))
	assert.Len(t, body["letters"], 26)
	assert.Equal(t, "A", body["letters"][0])
}

func TestDeleteSession_ReleasesSeat(t *testing.T) {
	h := newHarness(t, "C")
	require.Equal(t, http.StatusCreated, h.open(1, map[string]any{"pin": "1234"}))

	var body map[string]string
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/sessions/current",
		deleteSessionReq{PIN: "0000"}, &body))
	assert.Equal(t, "seat_locked", body["error"])

	// The wrong PIN left the session alone.
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/compose/state", nil, nil))

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/sessions/current",
		deleteSessionReq{PIN: "1234"}, nil))

	// The seat is free again: any PIN claims it.
	assert.Equal(t, http.StatusCreated, h.open(1, map[string]any{"pin": "9999"}))
}
