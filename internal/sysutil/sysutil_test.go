package sysutil

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"trace":     zerolog.TraceLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"WARN":      zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"disabled":  zerolog.Disabled,
		"verbose":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		got := SetLogLevel(in)
		if got != want || zerolog.GlobalLevel() != want {
			t.Fatalf("SetLogLevel(%q) = %v (global %v); want %v", in, got, zerolog.GlobalLevel(), want)
		}
	}
}

func TestVersionFromSettings(t *testing.T) {
	cases := []struct {
		name string
		in   []debug.BuildSetting
		want string
	}{
		{"no vcs", nil, "dev"},
		{"short rev", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}}, "abc123"},
		{"long rev", []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}}, "0123456789ab"},
		{"dirty", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		}, "0123456789ab+dirty"},
		{"modified without rev", []debug.BuildSetting{{Key: "vcs.modified", Value: "true"}}, "dev"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := versionFromSettings(tc.in); got != tc.want {
				t.Fatalf("versionFromSettings = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestVersion_EnvWins(t *testing.T) {
	t.Setenv("APP_VERSION", " v1.4.2 ")
	if got := Version(); got != "v1.4.2" {
		t.Fatalf("Version() = %q", got)
	}
	t.Setenv("APP_VERSION", "")
	if got := Version(); got == "" {
		t.Fatal("Version() should never be empty")
	}
}

func TestIsTruthy(t *testing.T) {
	trues := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	falses := []string{"", "0", "false", "no", "off", "n", "  ", "random"}

	for _, v := range trues {
		if !IsTruthy(v) {
			t.Fatalf("IsTruthy(%q) = false; want true", v)
		}
	}
	for _, v := range falses {
		if IsTruthy(v) {
			t.Fatalf("IsTruthy(%q) = true; want false", v)
		}
	}
}

func TestSetupLogger_JSONAndPretty(t *testing.T) {
	origLevel, origLog := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLog
	})

	var buf bytes.Buffer
	SetupLogger(&buf, "warn", false, "skillswap")
	log.Info().Msg("hidden")
	log.Warn().Str("room", "r1").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn: %s", out)
	}
	if !strings.Contains(out, `"service":"skillswap"`) || !strings.Contains(out, `"room":"r1"`) {
		t.Fatalf("json log missing fields: %s", out)
	}

	buf.Reset()
	t.Setenv("NO_COLOR", "1")
	SetupLogger(&buf, "debug", true, "skillswap")
	log.Debug().Msg("pretty line")
	if out := buf.String(); strings.HasPrefix(out, "{") || !strings.Contains(out, "pretty line") || strings.Contains(out, "\x1b[") {
		t.Fatalf("expected plain console output, got %q", out)
	}
}
