package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{env: "prod", want: zapcore.InfoLevel},
		{env: "local", want: zapcore.DebugLevel},
		{env: "docker", level: "warn", want: zapcore.WarnLevel},
		{env: "staging", wantErr: true},
		{env: "prod", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := New(Config{Env: tt.env, Level: tt.level})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !l.Core().Enabled(tt.want) {
				t.Errorf("level %s should be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
				t.Errorf("level %s should be disabled", tt.want-1)
			}
		})
	}
}

func TestZapConfig_CommandFields(t *testing.T) {
	serve, err := zapConfig(Config{Env: "prod", Command: "serve"})
	if err != nil {
		t.Fatal(err)
	}
	if serve.InitialFields["service"] != "byshoes" || serve.InitialFields["command"] != "serve" {
		t.Errorf("initial fields = %v", serve.InitialFields)
	}
	if serve.Sampling == nil {
		t.Error("serve should keep production sampling")
	}

	parse, err := zapConfig(Config{Env: "prod", Command: "parse"})
	if err != nil {
		t.Fatal(err)
	}
	if parse.Sampling != nil {
		t.Error("parse must log every record, sampling should be off")
	}

	bare, err := zapConfig(Config{Env: "local"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := bare.InitialFields["command"]; ok {
		t.Errorf("unexpected command field: %v", bare.InitialFields)
	}
}

func TestFromContext_Nop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger, got nil")
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, l := With(ctx, zap.String("site", "allstars"))
	l.Info("direct")
	FromContext(ctx).Info("from context")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ContextMap()["site"] != "allstars" {
			t.Errorf("entry %q missing site field: %v", e.Message, e.ContextMap())
		}
	}
}
