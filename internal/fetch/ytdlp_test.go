package fetch

import (
	"slices"
	"strings"
	"testing"
)

func TestBuildArgs_Defaults(t *testing.T) {
	args, err := buildArgs("dQw4w9WgXcQ", Options{OutputDir: "/tmp/out"})
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Contains(args, "--no-playlist") {
		t.Fatalf("missing --no-playlist in %v", args)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-P /tmp/out",
		"-o %(id)s.%(ext)s",
		"-N 4",
		"--retries 10",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in args: %s", want, joined)
		}
	}
	if strings.Contains(joined, "--proxy") || strings.Contains(joined, "--cookies") {
		t.Fatalf("unset options leaked into args: %s", joined)
	}
}

func TestBuildArgs_IdentityAndProxy(t *testing.T) {
	opts := Randomize(Options{OutputDir: "/tmp/out", ProxyURL: "http://127.0.0.1:7897"})
	if opts.UserAgent == "" || opts.AcceptLanguage == "" || opts.PlayerClient == "" {
		t.Fatalf("Randomize left identity fields empty: %+v", opts)
	}
	if opts.SleepInterval < 3 || opts.SleepInterval > 12 {
		t.Fatalf("sleep interval out of range: %f", opts.SleepInterval)
	}
	if opts.MaxSleepInterval <= opts.SleepInterval {
		t.Fatalf("max sleep must exceed sleep interval: %f <= %f", opts.MaxSleepInterval, opts.SleepInterval)
	}

	args, err := buildArgs("dQw4w9WgXcQ", opts)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--user-agent",
		"Accept-Language:",
		"youtube:player_client=",
		"--proxy http://127.0.0.1:7897",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in args: %s", want, joined)
		}
	}
}

func TestBuildArgs_MissingCookiesFileFails(t *testing.T) {
	_, err := buildArgs("dQw4w9WgXcQ", Options{OutputDir: "/tmp/out", CookiesPath: "/definitely/not/here.txt"})
	if err == nil {
		t.Fatalf("expected error for missing cookies file")
	}
}
