package widget

import "testing"

func TestParseControlMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "status message",
			data: `{"type":"status","sessionId":"abc","bytesReceived":2048}`,
		},
		{
			name: "assistant message",
			data: `{"type":"assistant","message":"hello there"}`,
		},
		{
			name:    "missing type",
			data:    `{"sessionId":"abc"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `<binary garbage>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := parseControlMessage([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseControlMessage failed: %v", err)
			}
			if msg.Type == "" {
				t.Error("parsed message has empty type")
			}
		})
	}
}
