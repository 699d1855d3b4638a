package user_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/frahmantamala/asset-inventory/internal/user"
	userPostgres "github.com/frahmantamala/asset-inventory/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type userEnvelope struct {
	Success bool       `json:"success"`
	Data    *user.User `json:"data"`
}

var _ = Describe("User Handler Integration", func() {
	var (
		router   chi.Router
		callerID int64
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err := sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		caller, err := sqlitetest.CreateUser(db, "admin@example.com", "Admin", true, false)
		Expect(err).NotTo(HaveOccurred())
		callerID = caller.ID

		perms := &stubPermissions{keys: map[int64][]string{callerID: {"admin.users.manage"}}}
		service := user.NewService(userPostgres.NewUserRepository(db), perms, bcryptHasher{}, nil, slogger)
		handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipalID(r.Context(), callerID)))
			})
		})
		router.Get("/users/me", handler.GetCurrentUser)
		router.Get("/users", handler.GetUsers)
		router.Post("/users", handler.CreateUser)
		router.Patch("/users/{id}/status", handler.UpdateUserStatus)
		router.Delete("/users/{id}", handler.DeleteUser)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns the caller with permissions", func() {
		w := do(http.MethodGet, "/users/me", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp userEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Data.Email).To(Equal("admin@example.com"))
		Expect(resp.Data.Permissions).To(ConsistOf("admin.users.manage"))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))
	})

	It("creates, deactivates and deletes a user", func() {
		w := do(http.MethodPost, "/users", `{"email":"tech@example.com","name":"Tech","password":"longenough"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created userEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(w.Body.String()).NotTo(ContainSubstring("longenough"))

		path := "/users/" + jsonID(created.Data.ID)
		w = do(http.MethodPatch, path+"/status", `{"is_active":false}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated userEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Data.IsActive).To(BeFalse())

		Expect(do(http.MethodDelete, path, "").Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, path, "").Code).To(Equal(http.StatusNotFound))
	})

	It("maps duplicate emails to 409", func() {
		Expect(do(http.MethodPost, "/users", `{"email":"admin@example.com","name":"Other","password":"longenough"}`).Code).
			To(Equal(http.StatusConflict))
	})

	It("rejects deleting yourself", func() {
		Expect(do(http.MethodDelete, "/users/"+jsonID(callerID), "").Code).To(Equal(http.StatusBadRequest))
	})
})

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
