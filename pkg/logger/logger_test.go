package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithCollection(ctx, "0xabc")
	logg.Info(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "req-1" {
		t.Errorf("missing request_id: %v", line)
	}
	if line["collection"] != "0xabc" {
		t.Errorf("missing collection: %v", line)
	}
	if line["service"] != "test" {
		t.Errorf("missing service: %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Error("debug should parse")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Error("empty should default to info")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Error("bogus should default to info")
	}
}
