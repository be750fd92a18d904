package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/deck"
	"github.com/zeusync/xiuli/internal/core/placement"
	"github.com/zeusync/xiuli/pkg/mat4"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDeck = `
name: test
root: {width: 800, height: 600}
container:
  transition_duration: 350ms
slides:
  - id: a
  - id: b
    transform: translate3d(1000px, 0, 0)
  - id: c
    transform: translate3d(2000px, 0, -500px) rotateY(30deg)
`

const presenterToken = "supersecrettoken"

func loadDeck(t *testing.T, doc string) *deck.Deck {
	t.Helper()
	d, err := deck.LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	return d
}

// worldCSS is the container transform that shows slideID, computed offline.
func worldCSS(t *testing.T, d *deck.Deck, slideID string) string {
	t.Helper()
	engine, err := d.Mount(placement.NewSliceContainer(mat4.Identity()))
	require.NoError(t, err)
	m, ok := engine.WorldTransform(slideID)
	require.True(t, ok, slideID)
	return css.FormatTransform(m)
}

func newTestServer(t *testing.T, d *deck.Deck) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(d, Config{PresenterToken: presenterToken})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { require.NoError(t, srv.Close()) })
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func send(t *testing.T, conn *websocket.Conn, cmd string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(cmd)))
}

func TestWelcomeFrame(t *testing.T) {
	d := loadDeck(t, testDeck)
	_, ts := newTestServer(t, d)

	conn := dial(t, ts, "?token="+presenterToken)
	welcome := readFrame(t, conn)

	assert.Equal(t, FrameWelcome, welcome.Type)
	assert.NotEmpty(t, welcome.Session)
	assert.True(t, welcome.Presenter)
	assert.Equal(t, "a", welcome.Slide)
	assert.Equal(t, 0, welcome.Index)
	assert.Equal(t, worldCSS(t, d, "a"), welcome.Transform)
	assert.Equal(t, int64(350), welcome.TransitionMS)
	assert.NotEmpty(t, welcome.ETag)
}

func TestConnectWithToken(t *testing.T) {
	_, ts := newTestServer(t, loadDeck(t, testDeck))
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	// Test with invalid token
	_, resp, err := websocket.DefaultDialer.Dial(u+"?token=invalid", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test with bearer header
	header := http.Header{"Authorization": {"Bearer " + presenterToken}}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.True(t, readFrame(t, conn).Presenter)

	// Test without token
	viewer := dial(t, ts, "")
	assert.False(t, readFrame(t, viewer).Presenter)
}

func TestViewerCannotNavigate(t *testing.T) {
	srv, ts := newTestServer(t, loadDeck(t, testDeck))

	viewer := dial(t, ts, "")
	readFrame(t, viewer)

	send(t, viewer, `{"type":"next"}`)
	f := readFrame(t, viewer)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, ErrForbidden.Error(), f.Error)
	// only the initial navigation happened
	assert.Equal(t, 1, srv.GetStats().Engine.Navigations)
}

func TestNavigationBroadcastAndSettle(t *testing.T) {
	d := loadDeck(t, testDeck)
	srv, ts := newTestServer(t, d)

	presenter := dial(t, ts, "?token="+presenterToken)
	readFrame(t, presenter)
	viewer := dial(t, ts, "")
	readFrame(t, viewer)

	send(t, presenter, `{"type":"next","payload":{"n":1}}`)
	for _, conn := range []*websocket.Conn{presenter, viewer} {
		f := readFrame(t, conn)
		assert.Equal(t, FrameTransform, f.Type)
		assert.Equal(t, "b", f.Slide)
		assert.Equal(t, 1, f.Index)
		assert.Equal(t, worldCSS(t, d, "b"), f.Transform)
	}

	// any viewer may report the end of the transition
	send(t, viewer, `{"type":"settled"}`)
	for _, conn := range []*websocket.Conn{presenter, viewer} {
		f := readFrame(t, conn)
		assert.Equal(t, FrameSettled, f.Type)
		assert.Equal(t, "b", f.Slide)
		assert.JSONEq(t, `{"n":1}`, string(f.Payload))
	}

	// a second report for the same transition is ignored
	send(t, presenter, `{"type":"settled"}`)
	send(t, presenter, `{"type":"goto","slide":"c"}`)
	f := readFrame(t, viewer)
	assert.Equal(t, FrameTransform, f.Type)
	assert.Equal(t, "c", f.Slide)
	assert.Equal(t, 2, f.Index)

	send(t, presenter, `{"type":"previous"}`)
	assert.Equal(t, "b", readFrame(t, viewer).Slide)

	stats := srv.GetStats()
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 1, stats.Presenters)
	assert.Equal(t, 1, stats.Engine.Settled)
}

func TestCommandErrors(t *testing.T) {
	_, ts := newTestServer(t, loadDeck(t, testDeck))

	presenter := dial(t, ts, "?token="+presenterToken)
	readFrame(t, presenter)

	cases := map[string]error{
		`{"type":"goto","slide":"zzz"}`: ErrUnknownSlide,
		`{"type":"jump"}`:               ErrUnknownCommand,
		`not json`:                      ErrInvalidMessage,
	}
	for cmd, want := range cases {
		send(t, presenter, cmd)
		f := readFrame(t, presenter)
		assert.Equal(t, FrameError, f.Type, cmd)
		assert.Contains(t, f.Error, want.Error(), cmd)
	}
}

func getDeck(t *testing.T, ts *httptest.Server, etag string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/deck", nil)
	require.NoError(t, err)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestDeckEndpoint(t *testing.T) {
	d := loadDeck(t, testDeck)
	_, ts := newTestServer(t, d)

	resp := getDeck(t, ts, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var layout Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&layout))
	assert.Equal(t, "test", layout.Name)
	assert.Equal(t, 800.0, layout.Width)
	assert.Equal(t, int64(350), layout.TransitionMS)
	require.Len(t, layout.Slides, 3)
	assert.Equal(t, "b", layout.Slides[1].ID)
	assert.Equal(t, "400px 300px 0px", layout.Slides[1].Origin)
	assert.Equal(t, worldCSS(t, d, "c"), layout.Slides[2].World)

	cached := getDeck(t, ts, etag)
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)
}

func TestReloadKeepsCurrentSlide(t *testing.T) {
	srv, ts := newTestServer(t, loadDeck(t, testDeck))
	before := getDeck(t, ts, "").Header.Get("ETag")

	viewer := dial(t, ts, "?token="+presenterToken)
	readFrame(t, viewer)
	send(t, viewer, `{"type":"goto","slide":"b"}`)
	require.Equal(t, "b", readFrame(t, viewer).Slide)

	moved := strings.Replace(testDeck, "translate3d(1000px, 0, 0)", "translate3d(1500px, 0, 0)", 1)
	next := loadDeck(t, moved)
	require.NoError(t, srv.Reload(next))

	f := readFrame(t, viewer)
	assert.Equal(t, FrameDeck, f.Type)
	assert.NotEqual(t, before, f.ETag)

	f = readFrame(t, viewer)
	assert.Equal(t, FrameTransform, f.Type)
	assert.Equal(t, "b", f.Slide)
	assert.Equal(t, worldCSS(t, next, "b"), f.Transform)

	assert.Equal(t, http.StatusNotModified, getDeck(t, ts, getDeck(t, ts, "").Header.Get("ETag")).StatusCode)
	assert.Equal(t, int64(1), srv.GetStats().Reloads)

	assert.ErrorIs(t, srv.Reload(nil), ErrNilDeck)
}

func TestReloadFallsBackToFirstSlide(t *testing.T) {
	d := loadDeck(t, testDeck)
	srv, ts := newTestServer(t, d)

	viewer := dial(t, ts, "?token="+presenterToken)
	readFrame(t, viewer)
	send(t, viewer, `{"type":"goto","slide":"c"}`)
	require.Equal(t, "c", readFrame(t, viewer).Slide)

	shorter := loadDeck(t, strings.Replace(testDeck, "  - id: c\n", "  - id: d\n", 1))
	require.NoError(t, srv.Reload(shorter))

	assert.Equal(t, FrameDeck, readFrame(t, viewer).Type)
	f := readFrame(t, viewer)
	assert.Equal(t, "a", f.Slide)
	assert.Equal(t, 0, f.Index)
}

func TestHealthz(t *testing.T) {
	srv, ts := newTestServer(t, loadDeck(t, testDeck))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, health{Status: "ok", Slides: 3}, body)

	require.NoError(t, srv.Close())
	closed, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer closed.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, closed.StatusCode)
}

func TestTokenAuth(t *testing.T) {
	req := func(query, header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws"+query, nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	open := &TokenAuth{}
	presenter, err := open.OnConnect(req("", ""))
	require.NoError(t, err)
	assert.True(t, presenter)

	auth := &TokenAuth{Token: "s3cret"}
	cases := []struct {
		r         *http.Request
		presenter bool
		err       error
	}{
		{req("", ""), false, nil},
		{req("?token=s3cret", ""), true, nil},
		{req("", "Bearer s3cret"), true, nil},
		{req("?token=nope", ""), false, ErrUnauthorized},
		{req("", "Bearer nope"), false, ErrUnauthorized},
	}
	for _, tc := range cases {
		presenter, err = auth.OnConnect(tc.r)
		assert.ErrorIs(t, err, tc.err)
		assert.Equal(t, tc.presenter, presenter)
	}
}

func TestCheckOrigin(t *testing.T) {
	assert.Nil(t, checkOrigin(nil))

	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	allowAll := checkOrigin([]string{"*"})
	assert.True(t, allowAll(withOrigin("https://evil.example")))

	listed := checkOrigin([]string{"https://slides.example/"})
	assert.True(t, listed(withOrigin("https://slides.example")))
	assert.True(t, listed(withOrigin("")))
	assert.False(t, listed(withOrigin("https://evil.example")))
}
