package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XadielF/hipotrack/core/config"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/service"
	"github.com/XadielF/hipotrack/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		ctx      context.Context
		users    *mockUserStore
		sessions *mockSessionStore
		svc      service.AuthService
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = &mockUserStore{}
		sessions = &mockSessionStore{}
		svc = service.NewAuthService(users, sessions, config.WorkOSConfig{
			APIKey:      "sk_test",
			ClientID:    "client_test",
			RedirectURI: "http://localhost:8080/auth/callback",
		}, "http://localhost:3000")
	})

	Describe("ValidateSession", func() {
		It("resolves a live session to its user", func() {
			sessions.getByIDFn = func(_ context.Context, id int64) (*model.Session, error) {
				Expect(id).To(Equal(int64(42)))
				return &model.Session{ID: 42, UserID: 10, ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			users.getByIDFn = func(_ context.Context, id int64) (*model.User, error) {
				Expect(id).To(Equal(int64(10)))
				return &model.User{ID: 10, Name: "Ana Ruiz", Role: model.RoleBorrower}, nil
			}

			user, err := svc.ValidateSession(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(10)))
		})

		It("treats an unknown session as expired", func() {
			sessions.getByIDFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.ValidateSession(ctx, 42)
			Expect(err).To(MatchError(service.ErrSessionExpired))
		})

		It("deletes a session past its expiry", func() {
			sessions.getByIDFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return &model.Session{ID: 42, UserID: 10, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			}

			_, err := svc.ValidateSession(ctx, 42)
			Expect(err).To(MatchError(service.ErrSessionExpired))
			Expect(sessions.deleteCalls).To(Equal([]int64{42}))
		})

		It("reports a session whose user row is gone", func() {
			sessions.getByIDFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return &model.Session{ID: 42, UserID: 10, ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			users.getByIDFn = func(_ context.Context, _ int64) (*model.User, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.ValidateSession(ctx, 42)
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})

		It("wraps store failures without mapping them to expiry", func() {
			sessions.getByIDFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return nil, errors.New("connection refused")
			}

			_, err := svc.ValidateSession(ctx, 42)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, service.ErrSessionExpired)).To(BeFalse())
		})
	})

	Describe("Logout", func() {
		It("deletes the session row", func() {
			Expect(svc.Logout(ctx, 42)).To(Succeed())
			Expect(sessions.deleteCalls).To(Equal([]int64{42}))
		})

		It("surfaces delete failures", func() {
			sessions.deleteFn = func(_ context.Context, _ int64) error {
				return errors.New("connection refused")
			}

			Expect(svc.Logout(ctx, 42)).NotTo(Succeed())
		})
	})
})
