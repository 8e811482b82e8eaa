package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem/cache"
)

func newTestCache(name string) *cache.Cache {
	c, err := cache.MakeBuilder().
		WithSetIndexBits(1).
		WithWayAssociativity(1).
		WithBlockOffsetBits(1).
		Build(name)
	Expect(err).NotTo(HaveOccurred())

	return c
}

func get(m *Monitor, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	m.router().ServeHTTP(rec, req)

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		m  *Monitor
		l1 *cache.Cache
	)

	BeforeEach(func() {
		m = NewMonitor()
		l1 = newTestCache("L1")
		m.RegisterCache(l1)
		m.RegisterCache(newTestCache("L2"))
	})

	It("should ignore privileged port numbers", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))
	})

	It("should listen on every port it accepts", func() {
		m.WithPortNumber(999)
		Expect(m.listenAddress()).To(Equal(":0"))

		m.WithPortNumber(1000)
		Expect(m.portNumber).To(Equal(1000))
		Expect(m.listenAddress()).To(Equal(":1000"))

		m.WithPortNumber(0)
		Expect(m.listenAddress()).To(Equal(":0"))
	})

	It("should list caches", func() {
		rec := get(m, "/api/caches")

		var names []string
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"L1", "L2"}))
	})

	It("should report the stats of a cache", func() {
		l1.Access(cache.OpLoad, 0, 1)
		l1.Access(cache.OpLoad, 0, 1)

		rec := get(m, "/api/stats/L1")

		var snapshot cache.Snapshot
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(rec.Body.Bytes(), &snapshot)).To(Succeed())
		Expect(snapshot.Name).To(Equal("L1"))
		Expect(snapshot.Geometry.Assoc).To(Equal(1))
		Expect(snapshot.Stats.Hits).To(Equal(uint64(1)))
		Expect(snapshot.Stats.Misses).To(Equal(uint64(1)))
		Expect(snapshot.HitRate).To(BeNumerically("~", 0.5))
	})

	It("should return 404 for an unknown cache", func() {
		Expect(get(m, "/api/stats/L3").Code).To(Equal(http.StatusNotFound))
		Expect(get(m, "/api/cache/L3").Code).To(Equal(http.StatusNotFound))
	})

	It("should serialize the details of a cache", func() {
		rec := get(m, "/api/cache/L1")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should reject a malformed field request", func() {
		rec := get(m, "/api/field/"+url.PathEscape("{not json"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list and complete progress bars", func() {
		bar := m.CreateProgressBar("L1", 10)
		bar.IncrementFinished(3)
		bar.IncrementFinished(2)

		rec := get(m, "/api/progress")

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].ID).To(Equal(bar.ID))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(5)))

		m.CompleteProgressBar(bar)

		rec = get(m, "/api/progress")
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(BeEmpty())
	})

	It("should report resource usage", func() {
		rec := get(m, "/api/resource")

		var rsp resourceRsp
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the web page", func() {
		rec := get(m, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should serve over TCP", func() {
		port := m.StartServer()

		rsp, err := http.Get("http://localhost:" + strconv.Itoa(port) + "/api/caches")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
