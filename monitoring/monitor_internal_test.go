package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	"github.com/gorilla/mux"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phoswich/sim"
)

type sampleWorker struct {
	WorkerID   int
	EventsDone int

	name string
}

func (w *sampleWorker) Name() string {
	return w.name
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
		m.RegisterEngine(sim.NewSerialEngine())
	})

	It("should register workers", func() {
		m.RegisterWorker(&sampleWorker{name: "Worker0"})
		m.RegisterWorker(&sampleWorker{name: "Worker1"})

		Expect(m.workers).To(HaveLen(2))
	})

	It("should fall back to a random port for privileged ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should keep an allowed port", func() {
		m.WithPortNumber(8080)

		Expect(m.portNumber).To(Equal(8080))
	})

	It("should report the current time", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/now", nil)

		m.now(w, r)

		Expect(w.Body.String()).To(Equal("{\"now\":0.0000000000}"))
	})

	It("should list worker names", func() {
		m.RegisterWorker(&sampleWorker{name: "Worker0"})
		m.RegisterWorker(&sampleWorker{name: "Worker1"})

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/workers", nil)

		m.listWorkers(w, r)

		Expect(w.Body.String()).To(Equal(`["Worker0","Worker1"]`))
	})

	It("should serialize a worker's state", func() {
		m.RegisterWorker(&sampleWorker{name: "Worker0", EventsDone: 3})

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/worker/Worker0", nil)
		r = mux.SetURLVars(r, map[string]string{"name": "Worker0"})

		m.listWorkerDetails(w, r)

		Expect(w.Code).To(Equal(200))
		Expect(w.Body.String()).NotTo(BeEmpty())
	})

	It("should 404 on unknown workers", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/worker/Worker9", nil)
		r = mux.SetURLVars(r, map[string]string{"name": "Worker9"})

		m.listWorkerDetails(w, r)

		Expect(w.Code).To(Equal(404))
		Expect(w.Body.String()).To(Equal("Worker not found"))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Worker0 events", 100)
		bar.IncrementFinished(25)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/progress", nil)

		m.listProgressBars(w, r)

		var bars []map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Worker0 events"))
		Expect(bars[0]["finished"]).To(BeEquivalentTo(25))
	})

	It("should drop completed progress bars", func() {
		bar := m.CreateProgressBar("Worker0 events", 100)
		m.CompleteProgressBar(bar)

		Expect(m.progressBars).To(BeEmpty())
	})

	It("should pause and continue the engine", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/pause", nil)

		m.pauseEngine(w, r)
		Expect(w.Code).To(Equal(200))

		w = httptest.NewRecorder()
		m.continueEngine(w, r)
		Expect(w.Code).To(Equal(200))
	})
})
