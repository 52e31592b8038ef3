package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"contentboard/internal/status"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APPROVAL_LINK_TTL", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("BASE_URL", "https://board.example.com")

	cfg := Load()

	if cfg.ApprovalLinkTTL != 30*24*time.Hour {
		t.Errorf("ApprovalLinkTTL = %v, want 720h", cfg.ApprovalLinkTTL)
	}
	if cfg.PublicBaseURL != "https://board.example.com" {
		t.Errorf("PublicBaseURL = %q, want BASE_URL fallback", cfg.PublicBaseURL)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("APPROVAL_LINK_TTL", "forever")

	if got := Load().ApprovalLinkTTL; got != 30*24*time.Hour {
		t.Errorf("ApprovalLinkTTL = %v, want default", got)
	}
}

func TestIsEmailEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"disabled", Config{SMTPEnabled: false, SMTPHost: "smtp", SMTPFrom: "a@b"}, false},
		{"missing host", Config{SMTPEnabled: true, SMTPFrom: "a@b"}, false},
		{"missing from", Config{SMTPEnabled: true, SMTPHost: "smtp"}, false},
		{"configured", Config{SMTPEnabled: true, SMTPHost: "smtp", SMTPFrom: "a@b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsEmailEnabled(); got != tt.want {
				t.Errorf("IsEmailEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadYAMLConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
clients:
  - slug: padaria-sol
    name: Padaria Sol
    contact_email: marketing@padariasol.example
    team_email: time-sol@agency.example
statuses:
  aprovado:
    label: Pronto para agendar
  production:
    color: "#000000"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAMLConfigFile(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfigFile() error = %v", err)
	}

	if len(cfg.Clients) != 1 || cfg.Clients[0].TeamEmail != "time-sol@agency.example" {
		t.Errorf("Clients = %+v", cfg.Clients)
	}

	overrides := cfg.StatusOverrides()
	if overrides[status.Approved].Label != "Pronto para agendar" {
		t.Errorf("legacy status key not normalized: %+v", overrides)
	}
	if overrides[status.Production].ColorHint != "#000000" {
		t.Errorf("color override missing: %+v", overrides)
	}
}

func TestLoadYAMLConfigFile_Missing(t *testing.T) {
	cfg, err := LoadYAMLConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || cfg != nil {
		t.Errorf("LoadYAMLConfigFile(missing) = (%v, %v), want (nil, nil)", cfg, err)
	}
	if cfg.StatusOverrides() != nil {
		t.Error("nil config should have no overrides")
	}
}

func TestStatusOverrides_IgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
statuses:
  inbox:
    label: Pedidos
  typo_key:
    color: "#000000"
  review:
    label: Revisão
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadYAMLConfigFile(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfigFile() error = %v", err)
	}

	overrides := cfg.StatusOverrides()
	if len(overrides) != 1 || overrides[status.Review].Label != "Revisão" {
		t.Errorf("overrides = %+v, want only review", overrides)
	}

	// Map iteration order must not matter.
	for i := 0; i < 20; i++ {
		reg := status.NewRegistry(cfg.StatusOverrides())
		for _, e := range reg.Entries() {
			if e.Key == status.Production && (e.Label != "Em produção" || e.ColorHint != "#3b82f6") {
				t.Fatalf("production column changed by unrelated override: %+v", e)
			}
		}
	}
}

func TestStatusOverrides_RegisteredKeyBeatsAlias(t *testing.T) {
	cfg := &YAMLConfig{Statuses: map[string]StatusConfig{
		"aprovado": {Label: "Alias"},
		"approved": {Label: "Exact"},
		"ajuste":   {Label: "Ajustes"},
	}}

	for i := 0; i < 20; i++ {
		overrides := cfg.StatusOverrides()
		if overrides[status.Approved].Label != "Exact" {
			t.Fatalf("approved label = %q, want Exact", overrides[status.Approved].Label)
		}
		if overrides[status.NeedsChanges].Label != "Ajustes" {
			t.Fatalf("needs_changes label = %q, want Ajustes", overrides[status.NeedsChanges].Label)
		}
	}
}
