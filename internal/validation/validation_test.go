package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"valid", "Post Natal", true},
		{"accented", "Promoção de verão", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"max length", strings.Repeat("a", MaxTitleLength), true},
		{"too long", strings.Repeat("a", MaxTitleLength+1), false},
		{"multibyte at limit", strings.Repeat("ç", MaxTitleLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ValidateTitle(tt.title)
			if got != tt.want {
				t.Errorf("ValidateTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestValidateComment(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		required bool
		want     bool
	}{
		{"required and present", "trocar a cor do fundo", true, true},
		{"required and empty", "", true, false},
		{"required and blank", "  \n\t ", true, false},
		{"optional and empty", "", false, true},
		{"too long", strings.Repeat("x", MaxCommentLength+1), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ValidateComment(tt.comment, tt.required)
			if got != tt.want {
				t.Errorf("ValidateComment(%q, %v) = %v (%s), want %v", tt.comment, tt.required, got, msg, tt.want)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid 40 chars", strings.Repeat("aB3", 13) + "x", true},
		{"too short", "abc123", false},
		{"too long", strings.Repeat("a", MaxTokenLength+1), false},
		{"contains dash", strings.Repeat("a", 32) + "-", false},
		{"sql meta", strings.Repeat("a", 32) + "'--", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateToken(tt.token); got != tt.want {
				t.Errorf("ValidateToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestNormalizeChannels(t *testing.T) {
	got := NormalizeChannels([]string{" Instagram", "tiktok", "instagram", "", "LinkedIn"})
	want := []string{"instagram", "tiktok", "linkedin"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeChannels() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateChannels(t *testing.T) {
	if ok, _ := ValidateChannels([]string{"instagram", "facebook_ads"}); !ok {
		t.Error("valid channels rejected")
	}
	if ok, _ := ValidateChannels([]string{"Insta gram"}); ok {
		t.Error("channel with space accepted")
	}
}

func TestError(t *testing.T) {
	err := Errorf("comentario", "is required")
	if err.Error() != "comentario: is required" {
		t.Errorf("Error() = %q", err.Error())
	}
	if (&Error{Message: "bad"}).Error() != "bad" {
		t.Error("field-less error should print message only")
	}
}
