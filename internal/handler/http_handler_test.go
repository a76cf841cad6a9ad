package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/covechat/cove/internal/auth"
	"github.com/covechat/cove/internal/bridge"
	"github.com/covechat/cove/internal/config"
	"github.com/covechat/cove/internal/directory"
	"github.com/covechat/cove/internal/hub"
	"github.com/covechat/cove/internal/presence"
	"github.com/covechat/cove/internal/service"
	"github.com/covechat/cove/internal/store"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *presence.MemoryTracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracker := presence.NewMemoryTracker(5 * time.Minute)
	svc := service.NewChatService(
		hub.NewHub(),
		store.NewMemoryMessageStore(store.Limits{RoomLogMax: 500, ConversationLogMax: 500}),
		tracker,
		directory.NewMemoryDirectory(),
		bridge.NewMemoryBridge(),
		nil,
		config.HistoryConfig{RoomReplay: 20, ConversationReplay: 50},
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { svc.Stop() })

	router := gin.New()
	h := NewHTTPHandler(svc, tracker, auth.NewJWTVerifier(testSecret, "cove"))
	h.RegisterRoutes(router)
	return router, tracker
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reqBody *strings.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	} else {
		reqBody = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body %s: %v", w.Body.String(), err)
	}
	return w, envelope
}

func testToken(t *testing.T, username string) string {
	t.Helper()
	token, err := auth.NewJWTVerifier(testSecret, "cove").GenerateToken(username, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestOnlineUsersEndpoint(t *testing.T) {
	router, tracker := newTestRouter(t)
	tracker.Touch(context.Background(), "alice")

	w, envelope := doJSON(t, router, http.MethodGet, "/api/online-users", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var users []string
	if err := json.Unmarshal(envelope["data"], &users); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(users) != 1 || users[0] != "alice" {
		t.Errorf("online users = %v, want [alice]", users)
	}
}

func TestListRoomsIncludesDefault(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodGet, "/api/rooms", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var rooms []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(envelope["data"], &rooms); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "general" {
		t.Errorf("rooms = %v, want the default room only", rooms)
	}
}

func TestCreateRoomRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/rooms", "", `{"name":"dev"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/rooms", "garbage-token", `{"name":"dev"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}

func TestCreateRoomConflict(t *testing.T) {
	router, _ := newTestRouter(t)
	token := testToken(t, "alice")

	w, envelope := doJSON(t, router, http.MethodPost, "/api/rooms", token, `{"name":"dev","private":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var room struct {
		Name    string `json:"name"`
		Creator string `json:"creator"`
		Private bool   `json:"private"`
	}
	if err := json.Unmarshal(envelope["data"], &room); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if room.Name != "dev" || room.Creator != "alice" || !room.Private {
		t.Errorf("room = %+v", room)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/rooms", token, `{"name":"dev"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestCreateRoomValidatesBody(t *testing.T) {
	router, _ := newTestRouter(t)
	token := testToken(t, "alice")

	w, _ := doJSON(t, router, http.MethodPost, "/api/rooms", token, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/rooms", token, `{"name":"x:meta"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("colon name status = %d, want 400", w.Code)
	}
}
