package protocol

import (
	"errors"
	"testing"

	"event-wall/internal/models"
)

func TestDecodeCommand_Known(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"kind":"submit","payload":{"kind":"message","text":"hi"}}`))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Kind != CmdSubmit {
		t.Fatalf("kind = %q, want submit", cmd.Kind)
	}
	var p SubmitPayload
	if err := cmd.Decode(&p); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Kind != models.KindMessage || p.Text != "hi" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestDecodeCommand_UnknownKind(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"kind":"send_danmu","payload":{}}`))
	if !errors.Is(err, models.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeCommand_Malformed(t *testing.T) {
	if _, err := DecodeCommand([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestCommand_DecodeMissingPayload(t *testing.T) {
	cmd := Command{Kind: CmdApprove}
	var p IDPayload
	if err := cmd.Decode(&p); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		kind CommandKind
		role models.Role
		ok   bool
	}{
		{CmdSubmit, models.RoleGuest, true},
		{CmdSubmit, models.RoleDisplay, false},
		{CmdApprove, models.RoleAdmin, true},
		{CmdApprove, models.RoleGuest, false},
		{CmdUpdateConfig, models.RoleDisplay, false},
		{CmdClearMessages, models.RoleAdmin, true},
		{CmdViewport, models.RoleDisplay, true},
		{CmdViewport, models.RoleAdmin, false},
	}
	for _, tt := range tests {
		err := Command{Kind: tt.kind}.Authorize(tt.role)
		if tt.ok && err != nil {
			t.Errorf("%s as %s: unexpected error %v", tt.kind, tt.role, err)
		}
		if !tt.ok && !errors.Is(err, models.ErrForbidden) {
			t.Errorf("%s as %s: expected ErrForbidden, got %v", tt.kind, tt.role, err)
		}
	}
}

func TestErrorEvent_Codes(t *testing.T) {
	tests := []struct {
		err     error
		code    string
		warning bool
	}{
		{models.ErrValidation, "validation", false},
		{models.ErrNotFound, "not_found", true},
		{models.ErrAlreadyResolved, "already_resolved", true},
		{models.ErrUnknownKind, "unknown_kind", false},
		{models.ErrForbidden, "forbidden", false},
		{errors.New("boom"), "internal", false},
	}
	for _, tt := range tests {
		ev := ErrorEvent(tt.err)
		p := ev.Payload.(ErrorPayload)
		if p.Code != tt.code || p.Warning != tt.warning {
			t.Errorf("%v: got code=%q warning=%v", tt.err, p.Code, p.Warning)
		}
	}
}
