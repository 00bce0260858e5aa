package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XadielF/hipotrack/internal/http/handler"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/http/router"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/store"
)

const testCorrelationKey = "1b4e28ba-2fa1-41d2-883f-0016d3cca427"

func testBorrower() *model.User {
	return &model.User{
		ID:    10,
		Name:  "Ana Ruiz",
		Email: "ana@example.com",
		Role:  model.RoleBorrower,
	}
}

var _ = Describe("MessageHandler", func() {
	var (
		engine        *gin.Engine
		backend       *mockBackend
		conversations *mockConversationStore
		messages      *mockMessageStore
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
		messages = &mockMessageStore{}
		authSvc = &mockAuthService{
			validateSessionFn: func(_ context.Context, sessionID int64) (*model.User, error) {
				if sessionID != 42 {
					return nil, errors.New("unknown session")
				}
				return testBorrower(), nil
			},
		}

		h := handler.NewMessageHandler(backend, conversations, messages)
		ch := handler.NewConversationHandler(backend, conversations)

		api := engine.Group("/api/v1")
		api.Use(middleware.RequireSession(authSvc))
		router.ConversationRouter(api.Group("/conversations"), ch, h)
		router.MessageRouter(api.Group("/messages"), h)
	})

	Describe("List", func() {
		It("returns the conversation history", func() {
			backend.listMessagesFn = func(_ context.Context, conversationID int64) ([]model.Message, error) {
				Expect(conversationID).To(Equal(int64(1)))
				return []model.Message{{
					ID:             100,
					ConversationID: 1,
					Content:        "Your appraisal came back",
					CreatedAt:      time.Now(),
				}}, nil
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/conversations/1/messages", nil)))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Messages []map[string]any `json:"messages"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Messages).To(HaveLen(1))
			Expect(resp.Messages[0]["id"]).To(Equal("100"))
			Expect(resp.Messages[0]["content"]).To(Equal("Your appraisal came back"))
		})

		It("returns 403 for a conversation the viewer is not part of", func() {
			conversations.isParticipantFn = func(_ context.Context, _, _ int64) (bool, error) {
				return false, nil
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/conversations/1/messages", nil)))

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("returns 401 without a session", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/1/messages", nil))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Create", func() {
		It("persists the row with the viewer as sender", func() {
			backend.insertMessageFn = func(_ context.Context, params messaging.InsertMessageParams) (*model.Message, error) {
				Expect(params.ConversationID).To(Equal(int64(1)))
				Expect(params.SenderID).To(Equal(int64(10)))
				Expect(params.SenderRole).To(Equal(model.RoleBorrower))
				Expect(params.CorrelationKey).To(Equal(testCorrelationKey))
				return &model.Message{
					ID:             7001,
					ConversationID: params.ConversationID,
					Content:        params.Content,
					CreatedAt:      time.Now(),
					Status:         model.DeliverySent,
					CorrelationKey: params.CorrelationKey,
				}, nil
			}

			body, _ := json.Marshal(map[string]string{
				"content":         "When is closing?",
				"correlation_key": testCorrelationKey,
			})
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/conversations/1/messages", bytes.NewBuffer(body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("7001"))
			Expect(resp["correlation_key"]).To(Equal(testCorrelationKey))
		})

		It("rejects a body without a correlation key", func() {
			body, _ := json.Marshal(map[string]string{"content": "hello"})
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/conversations/1/messages", bytes.NewBuffer(body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects empty content", func() {
			body, _ := json.Marshal(map[string]string{
				"content":         "",
				"correlation_key": testCorrelationKey,
			})
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/conversations/1/messages", bytes.NewBuffer(body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("CreateAttachment", func() {
		var message *model.Message

		BeforeEach(func() {
			message = &model.Message{ID: 7001, ConversationID: 1, Content: "docs"}
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				if id != 7001 {
					return nil, store.ErrNotFound
				}
				return message, nil
			}
		})

		multipartBody := func(fieldName, fileName string, data []byte) (*bytes.Buffer, string) {
			buf := &bytes.Buffer{}
			mw := multipart.NewWriter(buf)
			fw, err := mw.CreateFormFile(fieldName, fileName)
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())
			return buf, mw.FormDataContentType()
		}

		It("stores the file under a sanitized path and links the row", func() {
			var uploadedPath string
			backend.uploadFileFn = func(_ context.Context, path string, data []byte) (string, error) {
				uploadedPath = path
				Expect(data).To(Equal([]byte("pdf-bytes")))
				return path, nil
			}
			backend.insertAttachmentFn = func(_ context.Context, params messaging.InsertAttachmentParams) (*model.Attachment, error) {
				Expect(params.MessageID).To(Equal(int64(7001)))
				Expect(params.Name).To(Equal("W2 2025.pdf"))
				Expect(params.URL).To(HavePrefix("https://files.example.com/"))
				return &model.Attachment{
					ID:        8001,
					MessageID: params.MessageID,
					Name:      params.Name,
					URL:       &params.URL,
					CreatedAt: time.Now(),
				}, nil
			}

			buf, contentType := multipartBody("file", "W2 2025.pdf", []byte("pdf-bytes"))
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/messages/7001/attachments", buf))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(uploadedPath).To(Equal("conversations/1/messages/7001/w2-2025.pdf"))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("8001"))
			Expect(resp["name"]).To(Equal("W2 2025.pdf"))
		})

		It("returns 404 for an unknown message", func() {
			buf, contentType := multipartBody("file", "doc.pdf", []byte("x"))
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/messages/9999/attachments", buf))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 when the file part is missing", func() {
			buf, contentType := multipartBody("attachment", "doc.pdf", []byte("x"))
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/messages/7001/attachments", buf))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
