// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("DATABASE_TYPE", "postgres")
	os.Setenv("IDENTITY_SALT", "test-salt")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-identity-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default sqlite, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	if _, err := ParseFlags([]string{"-d", "file:test.db"}); err == nil {
		t.Error("expected error when IDENTITY_SALT is missing")
	}
	if _, err := ParseFlags([]string{"-d", "file:test.db", "-t", "mysql", "-identity-salt", "s"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestLoadSettings(t *testing.T) {
	Convey("Given the settings loader", t, func() {
		os.Clearenv()
		Reset(os.Clearenv)

		Convey("When only defaults apply", func() {
			s, err := LoadSettings("")

			Convey("Then the built-in values are used", func() {
				So(err, ShouldBeNil)
				So(s.PassingScore, ShouldEqual, 51.0)
				So(s.ReversalWindow, ShouldEqual, 24*time.Hour)
				So(s.DefaultQuota, ShouldEqual, 10)
				So(len(s.MedalDefaults()), ShouldEqual, 4)
			})
		})

		Convey("When a YAML file and env vars are present", func() {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			yamlContent := `
passing_score: 60
reversal_window: 12h
kafka_topic: from-file
medals:
  gold:
    max_count: 2
    min_score: 95
    max_score: 100
`
			So(os.WriteFile(path, []byte(yamlContent), 0o600), ShouldBeNil)
			os.Setenv("OLYMPIAD_KAFKA_TOPIC", "from-env")
			os.Setenv("OLYMPIAD_DEFAULT_QUOTA", "7")

			s, err := LoadSettings(path)

			Convey("Then env overrides the file and the file overrides defaults", func() {
				So(err, ShouldBeNil)
				So(s.PassingScore, ShouldEqual, 60.0)
				So(s.ReversalWindow, ShouldEqual, 12*time.Hour)
				So(s.KafkaTopic, ShouldEqual, "from-env")
				So(s.DefaultQuota, ShouldEqual, 7)
				So(s.Medals["gold"].MaxCount, ShouldEqual, 2)
				So(s.Medals["gold"].MinScore, ShouldEqual, 95.0)
			})
		})

		Convey("When the passing score is out of range", func() {
			os.Setenv("OLYMPIAD_PASSING_SCORE", "120")

			_, err := LoadSettings("")

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
