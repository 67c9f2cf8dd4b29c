package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Entidi89/credstore/internal/auth"
)

func TestServer_WS(t *testing.T) {
	ts := httptest.NewServer(New(auth.NewDefault()).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var testCases = []struct {
		description string
		request     string
		expectOp    string
		expectRes   interface{}
		expectErr   string
	}{
		{
			description: "login",
			request:     `{"op":"login","username":"testuser","password":"test@123"}`,
			expectOp:    "login",
			expectRes:   map[string]interface{}{"success": true, "message": "Login successful for user testuser", "user_id": "testuser"},
		},
		{
			description: "failed login",
			request:     `{"op":"login","username":"testuser","password":"test@124"}`,
			expectOp:    "login",
			expectRes:   map[string]interface{}{"success": false, "message": "Invalid username or password", "user_id": nil},
		},
		{
			description: "exists before register",
			request:     `{"op":"exists","username":"wsuser"}`,
			expectOp:    "exists",
			expectRes:   false,
		},
		{
			description: "register",
			request:     `{"op":"register","username":"wsuser","password":"ws-pass"}`,
			expectOp:    "register",
			expectRes:   map[string]interface{}{"success": true, "message": "User wsuser created successfully"},
		},
		{
			description: "exists after register",
			request:     `{"op":"exists","username":"wsuser"}`,
			expectOp:    "exists",
			expectRes:   true,
		},
		{
			description: "duplicate register",
			request:     `{"op":"register","username":"wsuser","password":"x"}`,
			expectOp:    "register",
			expectErr:   "user 'wsuser': user already exists",
		},
		{
			description: "empty login",
			request:     `{"op":"login","username":"","password":"x"}`,
			expectOp:    "login",
			expectErr:   "username: username and password cannot be empty",
		},
		{
			description: "non string username",
			request:     `{"op":"login","username":1,"password":"x"}`,
			expectOp:    "login",
			expectErr:   "username: username and password must be strings",
		},
		{
			description: "exists with non string username",
			request:     `{"op":"exists","username":5}`,
			expectOp:    "exists",
			expectRes:   false,
		},
		{
			description: "exists with non string password",
			request:     `{"op":"exists","username":"admin","password":7}`,
			expectOp:    "exists",
			expectRes:   true,
		},
		{
			description: "unknown op",
			request:     `{"op":"delete","username":"admin"}`,
			expectOp:    "delete",
			expectErr:   `unknown op "delete"`,
		},
	}

	var sessionID string
	for _, testCase := range testCases {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(testCase.request)), testCase.description)
		var actual map[string]interface{}
		require.NoError(t, conn.ReadJSON(&actual), testCase.description)

		assert.Equal(t, testCase.expectOp, actual["op"], testCase.description)
		if testCase.expectErr != "" {
			assert.Equal(t, testCase.expectErr, actual["error"], testCase.description)
			assert.Nil(t, actual["result"], testCase.description)
		} else {
			assert.Equal(t, testCase.expectRes, actual["result"], testCase.description)
			assert.Nil(t, actual["error"], testCase.description)
		}

		id, _ := actual["session_id"].(string)
		assert.NotEmpty(t, id)
		if sessionID == "" {
			sessionID = id
		}
		assert.Equal(t, sessionID, id, "session id is stable per connection")
	}
}

func TestServer_Dispatch_InvalidUTF8(t *testing.T) {
	srv := New(auth.NewDefault())

	resp := srv.dispatch([]byte("{\"op\":\"register\",\"username\":\"u8\",\"password\":\"\xff\"}"))
	assert.Equal(t, "malformed request: invalid utf-8", resp.Error)
	assert.Nil(t, resp.Result)
	assert.False(t, srv.Store.Exists("u8"))

	_, err := srv.Store.Register("u8", "\xff")
	require.NoError(t, err)
	resp = srv.dispatch([]byte("{\"op\":\"login\",\"username\":\"u8\",\"password\":\"\xfe\"}"))
	assert.Equal(t, "malformed request: invalid utf-8", resp.Error)
	assert.Nil(t, resp.Result)
	assert.True(t, srv.Store.Verify("u8", "\xff"))
}
