package stripe

import "testing"

func TestNormalizeEnv(t *testing.T) {
	t.Parallel()

	if env, err := normalizeEnv(""); err != nil || env != testEnv {
		t.Fatalf("expected default test env, got %q err=%v", env, err)
	}
	if env, err := normalizeEnv(" LIVE "); err != nil || env != liveEnv {
		t.Fatalf("expected live env, got %q err=%v", env, err)
	}
	if _, err := normalizeEnv("sandbox"); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestValidateAPIKey(t *testing.T) {
	t.Parallel()

	if err := validateAPIKey(testEnv, "sk_test_abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateAPIKey(testEnv, "sk_live_abc"); err == nil {
		t.Fatal("expected live key to be rejected in test env")
	}
	if err := validateAPIKey(liveEnv, "rk_live_abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateAPIKey(liveEnv, "sk_test_abc"); err == nil {
		t.Fatal("expected test key to be rejected in live env")
	}
}
