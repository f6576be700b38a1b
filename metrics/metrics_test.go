package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithPrometheusRegistry(registry),
			)
			m.areaClosures.WithLabelValues("classification", "closed").Inc()

			Convey("Then its collectors use the configured names", func() {
				So(m, ShouldNotBeNil)
				count, err := testutil.GatherAndCount(registry, "test_unit_area_closures_total")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When workflow metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.medalsAwarded.WithLabelValues("gold"))
			RecordMedal("gold")
			AddAssignments("final", "migration", 3)
			AddAssignments("final", "migration", 0)
			RecordEventDropped()
			UpdateEventQueueSize(4)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.medalsAwarded.WithLabelValues("gold")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.assignmentsCreated.WithLabelValues("final", "migration")), ShouldBeGreaterThanOrEqualTo, 3)
				So(testutil.ToFloat64(globalManager.eventQueueSize), ShouldEqual, 4)
			})
		})

		Convey("When the handler is scraped", func() {
			RecordReversal("reverted")
			rr := httptest.NewRecorder()
			Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then workflow series are exposed", func() {
				So(rr.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rr.Body.String(), "olympiad_workflow_competition_reversals_total"), ShouldBeTrue)
			})
		})
	})
}
