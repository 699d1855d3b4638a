package credential_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/credential"
	credentialPostgres "github.com/frahmantamala/asset-inventory/internal/credential/postgres"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	lifecyclePostgres "github.com/frahmantamala/asset-inventory/internal/lifecycle/postgres"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type envelope struct {
	Success           bool            `json:"success"`
	RequiresSelection bool            `json:"requires_selection"`
	Message           string          `json:"message"`
	Data              json.RawMessage `json:"data"`
	Error             *struct {
		Code string `json:"code"`
	} `json:"error"`
}

var _ = Describe("Credential HTTP flow", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		users   []int64
		laptop  *inventoryDatamodel.Asset
		credURL string
	)

	BeforeEach(func() {
		var err error
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := &transport.BaseHandler{Logger: logger}
		creds := credential.NewHandler(base, credential.NewService(credentialPostgres.NewCredentialRepository(db), credential.NewSealer(newKey()), nil, logger))
		lc := lifecycle.NewHandler(base, lifecycle.NewService(lifecyclePostgres.NewStore(db, logger), nil, logger), lifecycle.KindCredential)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipalID(r.Context(), 1)))
			})
		})
		router.Route("/credentials", func(r chi.Router) {
			r.Get("/", creds.GetCredentials)
			r.Post("/", creds.CreateCredential)
			r.Get("/{id}", creds.GetCredential)
			r.Patch("/{id}", creds.UpdateCredential)
			r.Delete("/{id}", lc.Delete)
			r.Post("/{id}/restore", lc.Restore)
			r.Post("/{id}/checkout", lc.Checkout)
			r.Post("/{id}/checkin", lc.Checkin)
			r.Get("/{id}/history", lc.History)
			r.Get("/{id}/holders", lc.Holders)
			r.Post("/{id}/reveal", creds.RevealSecret)
		})

		users = nil
		for _, name := range []string{"Alice", "Bob"} {
			u, err := sqlitetest.CreateUser(db, name+"@example.com", name, true, false)
			Expect(err).NotTo(HaveOccurred())
			users = append(users, u.ID)
		}
		laptop = &inventoryDatamodel.Asset{AssetTag: "LT-001", Name: "Laptop", Status: "available"}
		Expect(db.Create(laptop).Error).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	do := func(method, path, body string) (int, envelope) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		var env envelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return w.Code, env
	}

	holders := func() []lifecycle.Holder {
		code, env := do(http.MethodGet, credURL+"/holders", "")
		Expect(code).To(Equal(http.StatusOK))
		var resp lifecycle.HoldersResponse
		Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
		return resp.Holders
	}

	BeforeEach(func() {
		code, env := do(http.MethodPost, "/credentials", `{"name":"VPN","kind":"account","secret":"hunter2"}`)
		Expect(code).To(Equal(http.StatusCreated))
		var c credential.Credential
		Expect(json.Unmarshal(env.Data, &c)).To(Succeed())
		credURL = fmt.Sprintf("/credentials/%d", c.ID)
	})

	It("shares a credential and asks which holder to check in", func() {
		for _, body := range []string{
			fmt.Sprintf(`{"user_id":%d}`, users[0]),
			fmt.Sprintf(`{"user_id":%d}`, users[1]),
			fmt.Sprintf(`{"asset_id":%d}`, laptop.ID),
		} {
			code, _ := do(http.MethodPost, credURL+"/checkout", body)
			Expect(code).To(Equal(http.StatusOK))
		}
		Expect(holders()).To(HaveLen(3))

		code, env := do(http.MethodPost, credURL+"/checkout", fmt.Sprintf(`{"user_id":%d}`, users[0]))
		Expect(code).To(Equal(http.StatusConflict))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeDuplicateHolder)))

		code, env = do(http.MethodPost, credURL+"/checkin", "")
		Expect(code).To(Equal(http.StatusUnprocessableEntity))
		Expect(env.Success).To(BeFalse())
		Expect(env.RequiresSelection).To(BeTrue())
		var sel lifecycle.HoldersResponse
		Expect(json.Unmarshal(env.Data, &sel)).To(Succeed())
		Expect(sel.Holders).To(HaveLen(3))
		Expect(sel.Holders[2].DisplayName).To(Equal("Laptop (LT-001)"))
		Expect(holders()).To(HaveLen(3))

		code, _ = do(http.MethodPost, credURL+"/checkin", fmt.Sprintf(`{"holder":{"type":"user","id":%d}}`, users[1]))
		Expect(code).To(Equal(http.StatusOK))
		Expect(holders()).To(ConsistOf(
			lifecycle.Holder{Type: lifecycle.HolderUser, ID: users[0], DisplayName: "Alice"},
			lifecycle.Holder{Type: lifecycle.HolderAsset, ID: laptop.ID, DisplayName: "Laptop (LT-001)"},
		))

		code, env = do(http.MethodPost, credURL+"/checkin", `{"holder":{"type":"user","id":999}}`)
		Expect(code).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeHolderNotAssigned)))
	})

	It("refuses return attributes on a credential", func() {
		code, _ := do(http.MethodPost, credURL+"/checkout", fmt.Sprintf(`{"user_id":%d}`, users[0]))
		Expect(code).To(Equal(http.StatusOK))
		code, _ = do(http.MethodPost, credURL+"/checkin", `{"condition":"ok"}`)
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("reveals the secret without caching", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, credURL+"/reveal", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Cache-Control")).To(Equal("no-store"))
		Expect(w.Body.String()).To(ContainSubstring("hunter2"))

		code, env := do(http.MethodGet, credURL, "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(env.Data)).NotTo(ContainSubstring("hunter2"))
		Expect(string(env.Data)).To(ContainSubstring(`"has_secret":true`))
	})

	It("keeps holders through soft delete and restore", func() {
		code, _ := do(http.MethodPost, credURL+"/checkout", fmt.Sprintf(`{"user_id":%d}`, users[0]))
		Expect(code).To(Equal(http.StatusOK))

		code, _ = do(http.MethodDelete, credURL, "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(holders()).To(HaveLen(1))

		code, env := do(http.MethodPost, credURL+"/checkin", "")
		Expect(code).To(Equal(http.StatusConflict))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeResourceDeleted)))

		code, _ = do(http.MethodPost, credURL+"/restore", "")
		Expect(code).To(Equal(http.StatusOK))
		code, _ = do(http.MethodPost, credURL+"/checkin", "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(holders()).To(BeEmpty())
	})
})
