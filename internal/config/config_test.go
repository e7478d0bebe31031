package config_test

import (
	"context"
	"testing"

	"github.com/okian/peakline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.MaxHorizonDays, convey.ShouldEqual, 400)
			convey.So(cfg.MaxGoals, convey.ShouldEqual, 8)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1<<20)
			convey.So(cfg.CalibrationFile, convey.ShouldBeEmpty)
		})
	})
}
