package permission_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubAuthorizer struct {
	allowed  map[string]bool
	err      error
	lastKeys []string
}

func (s *stubAuthorizer) Authorize(ctx context.Context, principalID int64, key string) (bool, error) {
	return s.AuthorizeAny(ctx, principalID, []string{key})
}

func (s *stubAuthorizer) AuthorizeAny(ctx context.Context, principalID int64, keys []string) (bool, error) {
	s.lastKeys = keys
	if s.err != nil {
		return false, s.err
	}
	for _, k := range keys {
		if s.allowed[k] {
			return true, nil
		}
	}
	return false, nil
}

var _ = Describe("Authorization middleware", func() {
	var (
		authorizer *stubAuthorizer
		authz      *permission.Authorization
		reached    bool
		next       http.Handler
	)

	BeforeEach(func() {
		authorizer = &stubAuthorizer{allowed: map[string]bool{permission.AssetsView: true}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		authz = permission.NewAuthorization(authorizer, logger)
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(principalID int64, keys ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/assets", nil)
		if principalID > 0 {
			req = req.WithContext(internal.ContextWithPrincipalID(req.Context(), principalID))
		}
		rec := httptest.NewRecorder()
		authz.Require(keys...)(next).ServeHTTP(rec, req)
		return rec
	}

	It("passes through when the principal holds a listed key", func() {
		rec := serve(7, permission.AssetsView)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("passes through when any one of several keys is held", func() {
		rec := serve(7, permission.AssetsDelete, permission.AssetsView)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(authorizer.lastKeys).To(ConsistOf(permission.AssetsDelete, permission.AssetsView))
	})

	It("rejects with 403 when no key is held", func() {
		rec := serve(7, permission.AssetsDelete)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(reached).To(BeFalse())

		var body internal.Response
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Success).To(BeFalse())
		Expect(body.Error).NotTo(BeNil())
		Expect(body.Error.Code).To(Equal(internal.ErrCodeInsufficientGrants))
	})

	It("rejects with 401 when no principal is in context", func() {
		rec := serve(0, permission.AssetsView)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})

	It("fails closed when the store errors", func() {
		authorizer.err = errors.New("db down")
		rec := serve(7, permission.AssetsView)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(reached).To(BeFalse())
	})
})
