package tenant

import "testing"

func TestResolveSharedTenant(t *testing.T) {
	for _, key := range []string{"", "default"} {
		tn := Resolve(key)
		if tn.Isolated() {
			t.Fatalf("Resolve(%q) should be the shared tenant", key)
		}
		if tn.Key() != SharedKey {
			t.Fatalf("Resolve(%q).Key() = %q, want %q", key, tn.Key(), SharedKey)
		}
		if got := tn.IndexName("chat-bot"); got != "chat-bot" {
			t.Fatalf("shared tenant index = %q, want default index", got)
		}
	}
}

func TestResolveIsolatedTenant(t *testing.T) {
	tn := Resolve("Config_42")
	if !tn.Isolated() {
		t.Fatal("non-default key should resolve to an isolated tenant")
	}
	if tn.Key() != "Config_42" {
		t.Fatalf("Key() = %q, want original id", tn.Key())
	}
	if tn.Namespace() != "Config_42" {
		t.Fatalf("Namespace() = %q, want tenant key", tn.Namespace())
	}
}

func TestIndexNameNormalization(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abc123", "chatbot-abc123"},
		{"ABC", "chatbot-abc"},
		{"My Config!", "chatbot-my-config-"},
		{"a_b.c", "chatbot-a-b-c"},
		{"already-fine", "chatbot-already-fine"},
	}
	for _, tt := range tests {
		if got := Isolated(tt.id).IndexName("chat-bot"); got != tt.want {
			t.Errorf("IndexName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestIndexNameDeterministic(t *testing.T) {
	a := Isolated("Tenant-X").IndexName("chat-bot")
	b := Resolve("Tenant-X").IndexName("chat-bot")
	if a != b {
		t.Fatalf("index derivation not deterministic: %q vs %q", a, b)
	}
}
