package commands

import (
	"strings"
	"testing"

	"github.com/diogo/chatdeck/internal/api"
	"github.com/diogo/chatdeck/internal/models"
)

func TestPrintModels(t *testing.T) {
	reg := models.Fallback()

	var out strings.Builder
	if err := printModels(&out, reg, "", "gpt-4o"); err != nil {
		t.Fatalf("printModels failed: %v", err)
	}
	for _, want := range []string{"MODEL", "gpt-4o *", "128,000", "image", "claude-3-haiku", "$2.50/M"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if !strings.Contains(out.String(), "o1-mini") {
		t.Error("text-only models should be listed")
	}
}

func TestPrintModels_ProviderFilter(t *testing.T) {
	reg := models.Fallback()

	var out strings.Builder
	if err := printModels(&out, reg, "anthropic", ""); err != nil {
		t.Fatalf("printModels failed: %v", err)
	}
	if strings.Contains(out.String(), "gpt-4o") {
		t.Errorf("OpenAI models should be filtered out:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "claude-3.5-sonnet") {
		t.Errorf("Anthropic models missing:\n%s", out.String())
	}

	if err := printModels(&out, reg, "nobody", ""); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestFormatPrice(t *testing.T) {
	if got := formatPrice(models.Price{}); got != "-" {
		t.Errorf("zero unit = %q", got)
	}
	if got := formatPrice(models.Price{Price: 0.00001, Unit: 1}); got != "$10.00/M" {
		t.Errorf("price = %q", got)
	}
}

func TestModelsCommand_UsesFallbackOffline(t *testing.T) {
	setupTest(t, &api.MockClient{})

	out, err := execute(t, "", "models", "--provider", "openai")
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if !strings.Contains(out, "gpt-4o-mini") {
		t.Errorf("output:\n%s", out)
	}
}
