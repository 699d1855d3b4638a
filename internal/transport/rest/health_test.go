package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fixedQueue struct{ pending, capacity int }

func (q fixedQueue) Pending() int  { return q.pending }
func (q fixedQueue) Capacity() int { return q.capacity }

var _ = Describe("HealthHandler", func() {
	var db *sqlx.DB

	BeforeEach(func() {
		gdb, err := sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		db = sqlx.NewDb(sqlDB, "sqlite3")
	})

	check := func(h *HealthHandler) (int, HealthResponse) {
		w := httptest.NewRecorder()
		h.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp HealthResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return w.Code, resp
	}

	It("reports only the database when no queue is attached", func() {
		code, resp := check(NewHealthHandler(db, nil))
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(HealthHealthy))
		Expect(resp.Components).To(HaveKey("database"))
		Expect(resp.Components).NotTo(HaveKey("activity_queue"))
	})

	It("is degraded but serving when the activity queue is full", func() {
		code, resp := check(NewHealthHandler(db, fixedQueue{pending: 8, capacity: 8}))
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(HealthDegraded))
		Expect(resp.Components["activity_queue"].Status).To(Equal(HealthDegraded))
	})

	It("is unavailable when the database is gone", func() {
		Expect(db.Close()).To(Succeed())
		code, resp := check(NewHealthHandler(db, fixedQueue{pending: 0, capacity: 8}))
		Expect(code).To(Equal(http.StatusServiceUnavailable))
		Expect(resp.Status).To(Equal(HealthUnhealthy))
		Expect(resp.Components["activity_queue"].Status).To(Equal(HealthHealthy))
	})
})
