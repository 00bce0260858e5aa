package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XadielF/hipotrack/internal/http/handler"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/http/router"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/store"
)

var _ = Describe("ConversationHandler", func() {
	var (
		engine        *gin.Engine
		backend       *mockBackend
		conversations *mockConversationStore
		authSvc       *mockAuthService
	)

	authed := func(req *http.Request) *http.Request {
		req.Header.Set(middleware.SessionIDHeader, "42")
		return req
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		backend = &mockBackend{}
		conversations = &mockConversationStore{}
		authSvc = &mockAuthService{
			validateSessionFn: func(_ context.Context, _ int64) (*model.User, error) {
				return testBorrower(), nil
			},
		}

		h := handler.NewMessageHandler(backend, conversations, &mockMessageStore{})
		ch := handler.NewConversationHandler(backend, conversations)

		api := engine.Group("/api/v1")
		api.Use(middleware.RequireSession(authSvc))
		router.ConversationRouter(api.Group("/conversations"), ch, h)
	})

	Describe("List", func() {
		It("returns the viewer's directory", func() {
			backend.listConversationsFn = func(_ context.Context, viewerID int64) ([]model.Conversation, error) {
				Expect(viewerID).To(Equal(int64(10)))
				return []model.Conversation{{
					ID:        1,
					UpdatedAt: time.Now(),
					Participants: []model.Participant{
						{UserID: 10, DisplayName: "Ana Ruiz", Role: model.RoleBorrower, IsViewer: true},
						{UserID: 20, DisplayName: "Marco Díaz", Role: model.RoleLoanOfficer},
					},
				}}, nil
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Conversations []map[string]any `json:"conversations"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Conversations).To(HaveLen(1))
			Expect(resp.Conversations[0]["id"]).To(Equal("1"))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an unknown conversation", func() {
			conversations.getByIDFn = func(_ context.Context, _ int64, _ int64) (*model.Conversation, error) {
				return nil, store.ErrNotFound
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/conversations/9", nil)))

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 403 when the viewer is not on the roster", func() {
			conversations.getByIDFn = func(_ context.Context, id int64, _ int64) (*model.Conversation, error) {
				return &model.Conversation{
					ID: id,
					Participants: []model.Participant{
						{UserID: 20, DisplayName: "Marco Díaz", Role: model.RoleLoanOfficer},
					},
				}, nil
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/conversations/9", nil)))

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})
})
