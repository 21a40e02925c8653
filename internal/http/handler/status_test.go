package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"autodraft.app/assistant/internal/gate"
	"autodraft.app/assistant/internal/http/handler"
	"autodraft.app/assistant/internal/model"
	"autodraft.app/assistant/internal/runlog"
	"autodraft.app/assistant/internal/status"
)

var _ = Describe("StatusHandler", func() {
	var (
		tracker *mockTracker
		history *mockHistory
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		tracker = &mockTracker{}
		history = &mockHistory{}
	})

	serve := func(h *handler.StatusHandler, target string) *httptest.ResponseRecorder {
		router := gin.New()
		router.GET("/last", h.Last)
		router.GET("/recent", h.Recent)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	Describe("Last", func() {
		It("returns 404 before the first run", func() {
			w := serve(handler.NewStatusHandler(tracker, nil), "/last")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the in-memory report", func() {
			tracker.snap = status.Snapshot{Runs: 1, LastRun: &gate.RunReport{
				RunID:    42,
				Outcomes: []model.DraftOutcome{{MessageID: "m-1", Success: true}},
			}}

			w := serve(handler.NewStatusHandler(tracker, history), "/last")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["last_run"]).To(HaveKeyWithValue("run_id", "42"))
		})

		It("falls back to the run log", func() {
			history.lastRunFn = func(context.Context) ([]runlog.Entry, error) {
				return []runlog.Entry{{RunID: 9, Outcome: model.DraftOutcome{MessageID: "m-9"}}}, nil
			}

			w := serve(handler.NewStatusHandler(tracker, history), "/last")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"message_id":"m-9"`))
		})

		It("returns 404 when the run log is empty", func() {
			w := serve(handler.NewStatusHandler(tracker, history), "/last")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 when the run log fails", func() {
			history.lastRunFn = func(context.Context) ([]runlog.Entry, error) {
				return nil, errors.New("connection reset")
			}
			w := serve(handler.NewStatusHandler(tracker, history), "/last")
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Recent", func() {
		It("returns 503 without a run log", func() {
			w := serve(handler.NewStatusHandler(tracker, nil), "/recent")
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("passes the limit through", func() {
			w := serve(handler.NewStatusHandler(tracker, history), "/recent?limit=5")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(history.limits).To(Equal([]int32{5}))
		})

		DescribeTable("rejects invalid limits",
			func(limit string) {
				w := serve(handler.NewStatusHandler(tracker, history), "/recent?limit="+limit)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(history.limits).To(BeEmpty())
			},
			Entry("zero", "0"),
			Entry("too large", "501"),
			Entry("not a number", "ten"),
		)
	})
})
