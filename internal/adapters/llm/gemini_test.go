package llm

import (
	"testing"
)

func TestReplyConfigOmitsEmptySystemInstruction(t *testing.T) {
	// The free-form conversational path runs with no instruction at
	// all; Vertex rejects an empty text part, so the field must be
	// left unset rather than sent blank.
	cfg := replyConfig("")
	if cfg.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for an empty prompt, got %+v", cfg.SystemInstruction)
	}
}

func TestReplyConfigCarriesInstruction(t *testing.T) {
	cfg := replyConfig("You are Calio.")
	if cfg.SystemInstruction == nil {
		t.Fatalf("expected a system instruction")
	}
	if len(cfg.SystemInstruction.Parts) == 0 || cfg.SystemInstruction.Parts[0].Text != "You are Calio." {
		t.Fatalf("unexpected system instruction content: %+v", cfg.SystemInstruction)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Fatalf("expected temperature 0.7")
	}
}
