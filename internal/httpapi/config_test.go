package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(10)
	if maxBodyBytes != 10 {
		t.Fatalf("max=%d", maxBodyBytes)
	}
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("reset max=%d", maxBodyBytes)
	}
}

func TestSetRequestTimeout(t *testing.T) {
	defer SetRequestTimeout(0)
	SetRequestTimeout(time.Second)
	if requestTimeout != time.Second {
		t.Fatalf("timeout=%v", requestTimeout)
	}
	SetRequestTimeout(-time.Second)
	if requestTimeout != 0 {
		t.Fatalf("negative not clamped: %v", requestTimeout)
	}
}

func TestSetCORSOptions_Copies(t *testing.T) {
	defer SetCORSOptions(false, nil, nil, nil)
	origins := []string{"http://a"}
	SetCORSOptions(true, origins, nil, nil)
	origins[0] = "http://b"
	if corsAllowedOrigins[0] != "http://a" {
		t.Fatalf("origins aliased: %v", corsAllowedOrigins)
	}
}
