package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/peakline/internal/adapters/http/api"
	"github.com/okian/peakline/internal/adapters/repository"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/recovery"
)

// stubDeps implements api.Dependencies with pluggable behavior.
type stubDeps struct {
	preview    func(ctx context.Context, req model.PreviewRequest) (model.ProjectionChart, error)
	projection func(ctx context.Context, id string) (model.ProjectionChart, error)
	profile    func(ctx context.Context, target model.GoalTarget) (recovery.Profile, error)
}

func (s stubDeps) Preview(ctx context.Context, req model.PreviewRequest) (model.ProjectionChart, error) {
	return s.preview(ctx, req)
}

func (s stubDeps) Projection(ctx context.Context, id string) (model.ProjectionChart, error) {
	return s.projection(ctx, id)
}

func (s stubDeps) RecoveryProfile(ctx context.Context, target model.GoalTarget) (recovery.Profile, error) {
	return s.profile(ctx, target)
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func sampleChart() model.ProjectionChart {
	return model.ProjectionChart{
		ProjectionID: "p-1",
		StartDate:    model.Date(2026, time.January, 5),
		EndDate:      model.Date(2026, time.March, 29),
	}
}

func previewBody() []byte {
	start := model.Date(2026, time.January, 5)
	req := model.PreviewRequest{
		Plan: model.MinimalPlanDefinition{
			PlanStartDate: start,
			Goals: []model.Goal{{
				TargetDate: start.AddDate(0, 0, 83),
				Priority:   1,
				Targets: []model.GoalTarget{{
					Type:      model.TargetRacePerformance,
					DistanceM: 42195,
					TimeS:     4 * 3600,
					Sport:     model.SportRun,
				}},
			}},
		},
		Athlete: model.AthleteSnapshot{StartingCTL: 40, StartingATL: 38},
	}
	raw, _ := json.Marshal(req)
	return raw
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stubStats{}, 0).Register(context.Background(), mux)
	return mux
}

func TestHandlePreview(t *testing.T) {
	Convey("Given the preview route", t, func() {
		deps := stubDeps{
			preview: func(_ context.Context, _ model.PreviewRequest) (model.ProjectionChart, error) {
				return sampleChart(), nil
			},
		}
		mux := newMux(deps)

		Convey("When posting a valid request", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projections/preview", bytes.NewReader(previewBody())))

			Convey("Then it should return the chart as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")

				var chart model.ProjectionChart
				So(json.Unmarshal(rec.Body.Bytes(), &chart), ShouldBeNil)
				So(chart.ProjectionID, ShouldEqual, "p-1")
			})
		})

		Convey("When posting malformed JSON", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projections/preview", bytes.NewReader([]byte("{"))))

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When posting a body with unknown fields", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projections/preview", bytes.NewReader([]byte(`{"bogus":1}`))))

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service reports a contract violation", func() {
			deps.preview = func(_ context.Context, _ model.PreviewRequest) (model.ProjectionChart, error) {
				return model.ProjectionChart{}, model.ErrContract
			}
			rec := httptest.NewRecorder()
			newMux(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projections/preview", bytes.NewReader(previewBody())))

			Convey("Then it should map to 400 contract_violation", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "contract_violation")
			})
		})

		Convey("When using the wrong method", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projections/preview", nil))

			Convey("Then it should 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHandleGet(t *testing.T) {
	Convey("Given the projection replay route", t, func() {
		deps := stubDeps{
			projection: func(_ context.Context, id string) (model.ProjectionChart, error) {
				if id == "p-1" {
					return sampleChart(), nil
				}
				return model.ProjectionChart{}, repository.ErrNotFound
			},
		}
		mux := newMux(deps)

		Convey("When fetching a known projection", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projections/p-1", nil))

			Convey("Then it should return the stored chart", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"projection_id":"p-1"`)
			})
		})

		Convey("When fetching an unknown projection", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projections/missing", nil))

			Convey("Then it should 404 with the not_found code", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, "not_found")
			})
		})

		Convey("When the id carries a path separator", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projections/p-1/extra", nil))

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHandleProfile(t *testing.T) {
	Convey("Given the recovery profile route", t, func() {
		deps := stubDeps{
			profile: func(_ context.Context, target model.GoalTarget) (recovery.Profile, error) {
				return recovery.ComputeProfile(target, 0, 0, calibration.Default()), nil
			},
		}
		mux := newMux(deps)

		Convey("When posting a marathon target", func() {
			body := []byte(`{"target_type":"race_performance","distance_m":42195,"time_s":14400,"sport":"run"}`)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recovery/profile", bytes.NewReader(body)))

			Convey("Then it should return the profile", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var prof recovery.Profile
				So(json.Unmarshal(rec.Body.Bytes(), &prof), ShouldBeNil)
				So(prof.RecoveryDaysFull, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the service rejects the target", func() {
			deps.profile = func(_ context.Context, _ model.GoalTarget) (recovery.Profile, error) {
				return recovery.Profile{}, model.ErrContract
			}
			body := []byte(`{"target_type":"race_performance"}`)
			rec := httptest.NewRecorder()
			newMux(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recovery/profile", bytes.NewReader(body)))

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHandleStats(t *testing.T) {
	Convey("Given the stats route", t, func() {
		mux := newMux(stubDeps{})

		Convey("When fetching stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then it should return the provider snapshot", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})

		Convey("When posting to stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))

			Convey("Then it should 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given the health route", t, func() {
		mux := newMux(stubDeps{})

		Convey("When probing health", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it should report healthy", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
