package location_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	"github.com/frahmantamala/asset-inventory/internal/location"
	locationPostgres "github.com/frahmantamala/asset-inventory/internal/location/postgres"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type locationsEnvelope struct {
	Success bool                 `json:"success"`
	Data    []*location.Location `json:"data"`
}

type locationEnvelope struct {
	Success bool               `json:"success"`
	Data    *location.Location `json:"data"`
}

var _ = Describe("Location Handler Integration", func() {
	var (
		handler *location.Handler
		router  chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err := sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		repo := locationPostgres.NewLocationRepository(db)
		service := location.NewService(repo, nil, slogger)
		handler = location.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/locations", handler.GetLocations)
		router.Post("/locations", handler.CreateLocation)
		router.Get("/locations/{id}", handler.GetLocation)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/locations", bytes.NewBufferString(body))
		req = req.WithContext(internal.ContextWithPrincipalID(req.Context(), 1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates and lists locations ordered by name", func() {
		Expect(post(`{"name":"Warehouse"}`).Code).To(Equal(http.StatusCreated))
		Expect(post(`{"name":"Annex","address":"2nd Ave"}`).Code).To(Equal(http.StatusCreated))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp locationsEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Success).To(BeTrue())
		Expect(resp.Data).To(HaveLen(2))
		Expect(resp.Data[0].Name).To(Equal("Annex"))
		Expect(resp.Data[0].Address).To(Equal("2nd Ave"))
	})

	It("returns a single location", func() {
		w := post(`{"name":"Server Room"}`)
		var created locationEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations/1", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp locationEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Data.ID).To(Equal(created.Data.ID))
		Expect(resp.Data.Name).To(Equal("Server Room"))
	})

	It("answers 404 for an unknown location", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations/42", nil))
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeLocationNotFound)))
	})

	It("answers 409 for a duplicate name", func() {
		Expect(post(`{"name":"Warehouse"}`).Code).To(Equal(http.StatusCreated))
		w := post(`{"name":"Warehouse"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeDuplicateName)))
	})

	It("answers 400 for an invalid body", func() {
		Expect(post(`{"name":""}`).Code).To(Equal(http.StatusBadRequest))
		Expect(post(`not json`).Code).To(Equal(http.StatusBadRequest))
	})
})
