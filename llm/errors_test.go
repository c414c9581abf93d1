package llm

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status     int
		retryAfter string
		wantKind   Kind
		wantDelay  time.Duration
	}{
		{401, "", KindAuth, 0},
		{403, "", KindAuth, 0},
		{429, "7", KindRateLimited, 7 * time.Second},
		{429, "", KindRateLimited, 0},
		{429, "garbage", KindRateLimited, 0},
		{500, "", KindUnavailable, 0},
		{503, "", KindUnavailable, 0},
		{400, "", KindInvalid, 0},
		{404, "", KindInvalid, 0},
	}

	for _, tt := range tests {
		e := classifyHTTPStatus("groq", tt.status, tt.retryAfter, nil)
		if e.Kind != tt.wantKind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, e.Kind, tt.wantKind)
		}
		if e.RetryAfter != tt.wantDelay {
			t.Errorf("status %d: retry after = %v, want %v", tt.status, e.RetryAfter, tt.wantDelay)
		}
	}
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindRateLimited, KindUnavailable, KindUnreachable}
	for _, k := range retryable {
		if !Retryable(&Error{Kind: k}) {
			t.Errorf("kind %v should be retryable", k)
		}
	}

	terminal := []Kind{KindAuth, KindTimeout, KindInvalid, KindConfigMissing, KindUnknown}
	for _, k := range terminal {
		if Retryable(&Error{Kind: k}) {
			t.Errorf("kind %v should not be retryable", k)
		}
	}

	if Retryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestRetryableThroughWrapping(t *testing.T) {
	inner := &Error{Kind: KindRateLimited, Provider: "groq", RetryAfter: 2 * time.Second}
	wrapped := fmt.Errorf("request failed: %w", inner)

	if !Retryable(wrapped) {
		t.Error("kind should survive error wrapping")
	}
	delay, ok := SuggestedDelay(wrapped)
	if !ok || delay != 2*time.Second {
		t.Errorf("SuggestedDelay = %v, %v; want 2s, true", delay, ok)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Kind: KindAuth, Provider: "gemini", Message: "bad key"}
	want := "gemini: auth: bad key"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	cause := errors.New("boom")
	e2 := &Error{Kind: KindUnavailable, Provider: "ollama", Cause: cause}
	if !errors.Is(e2, cause) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("30"); d != 30*time.Second {
		t.Errorf("seconds form: got %v", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("empty: got %v", d)
	}
	future := time.Now().Add(time.Minute).UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
	if d := parseRetryAfter(future); d <= 0 || d > time.Minute {
		t.Errorf("http date form: got %v", d)
	}
}
