// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *PuzzleStore) {
	t.Helper()
	if opts.Store == nil {
		opts.Store = NewPuzzleStore(storage.New(t.TempDir(), nil), nil)
	}
	server := httptest.NewServer(NewServerHandler(opts))
	t.Cleanup(server.Close)
	return server, opts.Store
}

func wsURL(server *httptest.Server, puzzleID string) string {
	u, _ := url.Parse(server.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	if puzzleID != "" {
		q := u.Query()
		q.Set("puzzle", puzzleID)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func dial(t *testing.T, server *httptest.Server, puzzleID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, puzzleID), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readType reads messages until one of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func intp(i int) *int {
	return &i
}

func TestIndexPage(t *testing.T) {
	server, _ := newTestServer(t, Options{Coins: 9})

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	page := string(body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"<title>React App</title>",
		`id="left_0"`, `id="left_8"`, `id="right_8"`,
		`id="coin_0"`, `id="coin_8"`,
		`id="weigh"`, `id="reset"`,
		`class="game-info"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index page does not contain %s", want)
		}
	}
	if strings.Contains(page, `id="coin_9"`) {
		t.Error("index page has a tenth coin")
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestIndexPageTitle(t *testing.T) {
	server, _ := newTestServer(t, Options{Title: "Gold <Coins>"})
	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<title>Gold &lt;Coins&gt;</title>") {
		t.Errorf("title not escaped: %s", body)
	}
}

func TestStaticAssets(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	for _, path := range []string{"/app.js", "/app.css"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status = %d", path, resp.StatusCode)
		}
	}
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz: status = %d", resp.StatusCode)
	}
}

func TestWebSocketGame(t *testing.T) {
	server, store := newTestServer(t, Options{FakeCoin: 4, WeighDelay: 10 * time.Millisecond})
	conn := dial(t, server, "")

	hello := readType(t, conn, MsgTypeHello)
	if hello.Coins != DefaultCoins || !isValidUUID(hello.PuzzleID) {
		t.Fatalf("HELLO = %+v", hello)
	}

	weighings := []struct {
		left, right []int
		want        string
	}{
		{[]int{0}, []int{1}, "[0] = [1]"},
		{[]int{0, 1, 2}, []int{3, 4, 5}, "[0,1,2] > [3,4,5]"},
		{[]int{4}, []int{3}, "[4] < [3]"},
	}
	for _, w := range weighings {
		if err := conn.WriteJSON(Message{Type: MsgTypeWeigh, Left: w.left, Right: w.right}); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		res := readType(t, conn, MsgTypeResult)
		if res.Record != w.want {
			t.Errorf("RESULT = %q, want %q", res.Record, w.want)
		}
	}

	if err := conn.WriteJSON(Message{Type: MsgTypeWeigh, Left: []int{0}, Right: []int{0}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readType(t, conn, MsgTypeError); msg.Error == "" {
		t.Error("ERROR without text")
	}

	conn.WriteJSON(Message{Type: MsgTypeGuess, Coin: intp(3)})
	verdict := readType(t, conn, MsgTypeVerdict)
	if verdict.Correct || verdict.Message != MessageWrong {
		t.Errorf("VERDICT = %+v", verdict)
	}
	conn.WriteJSON(Message{Type: MsgTypeGuess, Coin: intp(4)})
	verdict = readType(t, conn, MsgTypeVerdict)
	if !verdict.Correct || verdict.Message != MessageFound {
		t.Errorf("VERDICT = %+v", verdict)
	}

	p, err := store.Get(hello.PuzzleID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.Weighings) != 3 || !p.Solved || len(p.Guesses) != 2 {
		t.Errorf("puzzle = %+v", p)
	}
}

func TestWebSocketWatcher(t *testing.T) {
	server, _ := newTestServer(t, Options{FakeCoin: 2})
	player := dial(t, server, "")
	hello := readType(t, player, MsgTypeHello)

	watcher := dial(t, server, hello.PuzzleID)
	if got := readType(t, watcher, MsgTypeHello); got.PuzzleID != hello.PuzzleID {
		t.Fatalf("watcher HELLO = %+v", got)
	}

	player.WriteJSON(Message{Type: MsgTypeWeigh, Left: []int{0}, Right: []int{2}})
	if got := readType(t, watcher, MsgTypeResult); got.Record != "[0] > [2]" {
		t.Errorf("watcher RESULT = %q", got.Record)
	}
	player.WriteJSON(Message{Type: MsgTypeReset})
	readType(t, watcher, MsgTypeReset)

	watcher.WriteJSON(Message{Type: MsgTypeWeigh, Left: []int{0}, Right: []int{1}})
	if msg := readType(t, watcher, MsgTypeError); msg.Error == "" {
		t.Error("watcher should not be able to weigh")
	}
}

func TestWebSocketUnknownPuzzle(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa"), nil)
	if err == nil {
		t.Fatal("Dial should fail for an unknown puzzle")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v", resp)
	}
}

func TestPuzzleAPI(t *testing.T) {
	server, _ := newTestServer(t, Options{FakeCoin: 6})
	conn := dial(t, server, "")
	hello := readType(t, conn, MsgTypeHello)
	conn.WriteJSON(Message{Type: MsgTypeWeigh, Left: []int{0}, Right: []int{1}})
	readType(t, conn, MsgTypeResult)

	get := func(id string) (*http.Response, puzzleState) {
		resp, err := http.Get(server.URL + "/api/puzzles/" + id)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		var state puzzleState
		json.NewDecoder(resp.Body).Decode(&state)
		return resp, state
	}

	resp, state := get(hello.PuzzleID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if state.Fake != -1 {
		t.Errorf("fake coin revealed before the puzzle is solved: %d", state.Fake)
	}
	if len(state.Weighings) != 1 || state.Weighings[0] != "[0] = [1]" {
		t.Errorf("Weighings = %v", state.Weighings)
	}
	if state.Watchers != 1 {
		t.Errorf("Watchers = %d, want 1", state.Watchers)
	}
	if got := resp.Header.Get("Cache-Control"); !strings.Contains(got, "no-cache") {
		t.Errorf("Cache-Control = %q", got)
	}

	conn.WriteJSON(Message{Type: MsgTypeGuess, Coin: intp(6)})
	readType(t, conn, MsgTypeVerdict)
	if _, state = get(hello.PuzzleID); state.Fake != 6 || !state.Solved {
		t.Errorf("solved state = %+v", state)
	}

	if resp, _ := get("not-a-uuid"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid id status = %d", resp.StatusCode)
	}
	if resp, _ := get("aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d", resp.StatusCode)
	}
}

func TestStartServer(t *testing.T) {
	server, err := StartServer(Options{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	defer server.Shutdown(t.Context())
	resp, err := http.Get("http://" + server.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
