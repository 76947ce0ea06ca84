package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lloydmeta/gol-rs/internal/database"
	"github.com/lloydmeta/gol-rs/internal/engine"
	"github.com/lloydmeta/gol-rs/internal/protocol"
	"github.com/lloydmeta/gol-rs/internal/server"
	"github.com/stretchr/testify/suite"
)

type APITestSuite struct {
	suite.Suite
	server *http.Server
	db     database.DatabaseService
	dbFile string
	ctx    context.Context
	cancel context.CancelFunc
}

type testConfig struct {
	port       uint
	gridWidth  uint
	gridHeight uint
	ups        uint
}

func (c *testConfig) Port() uint             { return c.port }
func (c *testConfig) GridWidth() uint        { return c.gridWidth }
func (c *testConfig) GridHeight() uint       { return c.gridHeight }
func (c *testConfig) UpdatesPerSecond() uint { return c.ups }

// testDatabaseConfig implements DatabaseConfig for integration tests
type testDatabaseConfig struct {
	dbUrl string
}

func (c *testDatabaseConfig) DBUrl() string { return c.dbUrl }

func (suite *APITestSuite) SetupTest() {
	// Create a unique temporary database file for each test
	tmpFile, err := os.CreateTemp("", "test_integration_*.db")
	suite.Require().NoError(err)
	dbFile := tmpFile.Name()
	tmpFile.Close()

	cfg := &testConfig{port: 8080, gridWidth: 24, gridHeight: 16, ups: 100}
	db := database.NewDatabaseService(&testDatabaseConfig{dbUrl: dbFile})
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.NewEngine(cfg, nil, ctx)
	suite.server = server.NewServer(cfg, db, eng)
	suite.db = db
	suite.dbFile = dbFile
	suite.ctx = ctx
	suite.cancel = cancel

	// Give the server's output consumer a moment to cache the initial frame,
	// so new websocket listeners always receive it on connect.
	time.Sleep(50 * time.Millisecond)
}

func (suite *APITestSuite) TearDownTest() {
	if suite.cancel != nil {
		suite.cancel()
	}
	suite.server.Close()
	suite.db.Close()
	if suite.dbFile != "" {
		os.Remove(suite.dbFile)
	}
}

func (suite *APITestSuite) TestHealthCheck() {
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	suite.server.Handler.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestGlobals() {
	req := httptest.NewRequest("GET", "/globals", nil)
	w := httptest.NewRecorder()
	suite.server.Handler.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var g server.Globals
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &g))
	suite.Equal(uint(24), g.GridWidth)
	suite.Equal(uint(16), g.GridHeight)
}

func (suite *APITestSuite) dialPlay(ts *httptest.Server) *websocket.Conn {
	u, err := url.Parse(ts.URL)
	suite.Require().NoError(err)
	u.Scheme = "ws"
	u.Path = "/play"

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	suite.Require().NoError(err)
	return c
}

func (suite *APITestSuite) readFrame(c *websocket.Conn) *protocol.Frame {
	suite.Require().NoError(c.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, msg, err := c.ReadMessage()
	suite.Require().NoError(err)
	f := &protocol.Frame{}
	suite.Require().NoError(f.Decode(msg))
	return f
}

func (suite *APITestSuite) TestPlayWebSocketDeliversFrames() {
	ts := httptest.NewServer(suite.server.Handler)
	defer ts.Close()

	c := suite.dialPlay(ts)
	defer c.Close()

	// The initial generation is pushed to every new listener.
	f := suite.readFrame(c)
	suite.Equal(uint16(24), f.Width)
	suite.Equal(uint16(16), f.Height)
	suite.Equal(uint64(0), f.Generation)
	suite.False(f.Playing)
}

func (suite *APITestSuite) TestNextCommandStepsOneGeneration() {
	ts := httptest.NewServer(suite.server.Handler)
	defer ts.Close()

	c := suite.dialPlay(ts)
	defer c.Close()

	first := suite.readFrame(c)
	suite.Equal(uint64(0), first.Generation)

	for i := 1; i <= 3; i++ {
		cmd := protocol.Command{Cmd: protocol.Next}
		suite.NoError(c.WriteMessage(websocket.BinaryMessage, cmd.Encode()))
		f := suite.readFrame(c)
		suite.Equal(uint64(i), f.Generation)
	}
}

func (suite *APITestSuite) TestSaveAndRestore() {
	ts := httptest.NewServer(suite.server.Handler)
	defer ts.Close()

	c := suite.dialPlay(ts)
	defer c.Close()

	// Step once so the saved snapshot is a non-initial generation, and so we
	// know the server has cached a frame before calling /save.
	cmd := protocol.Command{Cmd: protocol.Next}
	suite.NoError(c.WriteMessage(websocket.BinaryMessage, cmd.Encode()))
	suite.readFrame(c)

	req := httptest.NewRequest("POST", "/save", nil)
	w := httptest.NewRecorder()
	suite.server.Handler.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)

	snapshot, err := suite.db.GetSnapshot()
	suite.NoError(err)
	suite.NotEmpty(snapshot)

	var saved protocol.Frame
	suite.NoError(saved.Decode(snapshot))
	suite.Equal(uint16(24), saved.Width)
	suite.Equal(uint16(16), saved.Height)

	// A new engine restored from the snapshot reproduces the saved state.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	restored := engine.NewEngine(&testConfig{port: 8080, gridWidth: 24, gridHeight: 16, ups: 100}, snapshot, ctx)
	f := restored.Snapshot()
	suite.Equal(saved.Generation, f.Generation)
	for k := 0; k < 24*16; k++ {
		suite.Equal(saved.AliveAt(k), f.AliveAt(k), "cell %d", k)
	}
}

func (suite *APITestSuite) TestSpeedChangeIsBroadcast() {
	ts := httptest.NewServer(suite.server.Handler)
	defer ts.Close()

	c := suite.dialPlay(ts)
	defer c.Close()

	suite.readFrame(c)

	msg := protocol.SetSpeed{Speed: 250}
	suite.NoError(c.WriteMessage(websocket.BinaryMessage, msg.Encode()))
	f := suite.readFrame(c)
	suite.Equal(uint16(250), f.Speed)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
