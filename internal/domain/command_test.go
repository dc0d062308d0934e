package domain

import (
	"errors"
	"testing"
)

func TestNotification_String(t *testing.T) {
	tests := []struct {
		n    Notification
		want string
	}{
		{Attach(true), "cmd:Attach;value:True"},
		{Attach(false), "cmd:Attach;value:False"},
		{Detach(true), "cmd:Detach;value:True"},
		{Detach(false), "cmd:Detach;value:False"},
	}
	for _, tt := range tests {
		if got := tt.n.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		in      string
		want    Notification
		wantErr bool
	}{
		{"cmd:Attach;value:True", Attach(true), false},
		{"cmd:Detach;value:false", Detach(false), false},
		{"cmd:Attach", Notification{Name: "Attach"}, false},
		{"value:True", Notification{}, true},
		{"cmd:Attach;value:maybe", Notification{}, true},
		{"garbage", Notification{}, true},
	}
	for _, tt := range tests {
		got, err := ParseNotification(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNotification(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("ParseNotification(%q) error = %v, want ErrUnknownCommand", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseNotification(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNewMessage_CopiesPayload(t *testing.T) {
	buf := []byte("cmd:Attach;value:True")
	m := NewMessage(buf)
	buf[0] = 'X'
	if string(m.Payload()) != "cmd:Attach;value:True" {
		t.Errorf("Payload() = %q, mutated by caller", m.Payload())
	}
	if m.Len() != len(buf) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(buf))
	}
}
