package asset_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/asset"
	assetPostgres "github.com/frahmantamala/asset-inventory/internal/asset/postgres"
	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	lifecyclePostgres "github.com/frahmantamala/asset-inventory/internal/lifecycle/postgres"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"error"`
}

var _ = Describe("Asset HTTP flow", func() {
	var (
		db     *gorm.DB
		router chi.Router
		userID int64
		hqID   int64
	)

	BeforeEach(func() {
		var err error
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := &transport.BaseHandler{Logger: logger}
		assets := asset.NewHandler(base, asset.NewService(assetPostgres.NewAssetRepository(db), nil, logger))
		lc := lifecycle.NewHandler(base, lifecycle.NewService(lifecyclePostgres.NewStore(db, logger), nil, logger), lifecycle.KindAsset)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipalID(r.Context(), 1)))
			})
		})
		router.Route("/assets", func(r chi.Router) {
			r.Get("/", assets.GetAssets)
			r.Post("/", assets.CreateAsset)
			r.Get("/{id}", assets.GetAsset)
			r.Patch("/{id}", assets.UpdateAsset)
			r.Delete("/{id}", lc.Delete)
			r.Post("/{id}/restore", lc.Restore)
			r.Post("/{id}/checkout", lc.Checkout)
			r.Post("/{id}/checkin", lc.Checkin)
			r.Get("/{id}/history", lc.History)
		})

		u, err := sqlitetest.CreateUser(db, "alice@example.com", "Alice", true, false)
		Expect(err).NotTo(HaveOccurred())
		userID = u.ID
		hq := &inventoryDatamodel.Location{Name: "HQ"}
		Expect(db.Create(hq).Error).NotTo(HaveOccurred())
		hqID = hq.ID
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	do := func(method, path, body string) (int, envelope) {
		var reader *bytes.Buffer
		if body == "" {
			reader = &bytes.Buffer{}
		} else {
			reader = bytes.NewBufferString(body)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
		var env envelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return w.Code, env
	}

	listIDs := func(path string) []int64 {
		code, env := do(http.MethodGet, path, "")
		Expect(code).To(Equal(http.StatusOK))
		var resp asset.AssetsResponse
		Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
		ids := make([]int64, 0, len(resp.Assets))
		for _, a := range resp.Assets {
			ids = append(ids, a.ID)
		}
		return ids
	}

	It("walks an asset through checkout, check-in and soft delete", func() {
		code, env := do(http.MethodPost, "/assets", `{"asset_tag":"LT-001","name":"Laptop"}`)
		Expect(code).To(Equal(http.StatusCreated))
		var created asset.Asset
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())
		base := fmt.Sprintf("/assets/%d", created.ID)

		code, env = do(http.MethodPost, base+"/checkout", fmt.Sprintf(`{"user_id":%d,"notes":"onboarding"}`, userID))
		Expect(code).To(Equal(http.StatusOK))
		var out lifecycle.CheckoutResult
		Expect(json.Unmarshal(env.Data, &out)).To(Succeed())
		Expect(out.Resource.Status).To(Equal(lifecycle.StatusAssigned))
		Expect(out.Resource.Holders).To(ConsistOf(lifecycle.Holder{Type: lifecycle.HolderUser, ID: userID, DisplayName: "Alice"}))

		Expect(listIDs("/assets?available=true")).To(BeEmpty())

		code, env = do(http.MethodPost, base+"/checkout", fmt.Sprintf(`{"user_id":%d}`, userID))
		Expect(code).To(Equal(http.StatusConflict))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeAlreadyAssigned)))

		code, _ = do(http.MethodPost, base+"/checkin", fmt.Sprintf(`{"location_id":%d,"condition":"scratched"}`, hqID))
		Expect(code).To(Equal(http.StatusOK))

		code, env = do(http.MethodGet, base, "")
		Expect(code).To(Equal(http.StatusOK))
		var got asset.Asset
		Expect(json.Unmarshal(env.Data, &got)).To(Succeed())
		Expect(got.Status).To(Equal("available"))
		Expect(got.AssignedUserID).To(BeNil())
		Expect(got.Condition).To(Equal("scratched"))
		Expect(*got.LocationID).To(Equal(hqID))

		code, env = do(http.MethodGet, base+"/history", "")
		Expect(code).To(Equal(http.StatusOK))
		var entries []lifecycle.HistoryEntry
		Expect(json.Unmarshal(env.Data, &entries)).To(Succeed())
		actions := []lifecycle.Action{}
		for _, e := range entries {
			actions = append(actions, e.Action)
		}
		Expect(actions).To(Equal([]lifecycle.Action{lifecycle.ActionCreate, lifecycle.ActionCheckout, lifecycle.ActionCheckin}))

		code, _ = do(http.MethodDelete, base, "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(listIDs("/assets")).To(BeEmpty())

		code, env = do(http.MethodGet, base, "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(env.Data, &got)).To(Succeed())
		Expect(got.IsDeleted).To(BeTrue())

		code, _ = do(http.MethodGet, base+"/history", "")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = do(http.MethodPost, base+"/restore", "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(listIDs("/assets")).To(ConsistOf(created.ID))
	})

	It("checks in an asset with an empty body", func() {
		_, env := do(http.MethodPost, "/assets", `{"asset_tag":"LT-002","name":"Dock"}`)
		var created asset.Asset
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())
		base := fmt.Sprintf("/assets/%d", created.ID)

		code, _ := do(http.MethodPost, base+"/checkout", fmt.Sprintf(`{"location_id":%d}`, hqID))
		Expect(code).To(Equal(http.StatusOK))

		code, env = do(http.MethodPost, base+"/checkin", "")
		Expect(code).To(Equal(http.StatusOK))
		var result lifecycle.CheckinResult
		Expect(json.Unmarshal(env.Data, &result)).To(Succeed())
		Expect(result.Outcome).To(Equal(lifecycle.OutcomeCompleted))
		Expect(result.Resource.Holders).To(BeEmpty())
	})

	It("maps lifecycle errors onto status codes", func() {
		code, env := do(http.MethodPost, "/assets/77/checkout", fmt.Sprintf(`{"user_id":%d}`, userID))
		Expect(code).To(Equal(http.StatusNotFound))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeAssetNotFound)))

		_, env = do(http.MethodPost, "/assets", `{"asset_tag":"LT-003","name":"Phone"}`)
		var created asset.Asset
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())
		base := fmt.Sprintf("/assets/%d", created.ID)

		code, env = do(http.MethodPost, base+"/checkout", fmt.Sprintf(`{"user_id":%d,"location_id":%d}`, userID, hqID))
		Expect(code).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeInvalidTarget)))

		code, env = do(http.MethodPost, base+"/checkin", "")
		Expect(code).To(Equal(http.StatusConflict))
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeNotCheckedOut)))

		code, _ = do(http.MethodGet, "/assets/abc", "")
		Expect(code).To(Equal(http.StatusBadRequest))
	})
})
