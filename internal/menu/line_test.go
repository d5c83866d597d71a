package menu

import "testing"

func TestLinePlainText(t *testing.T) {
	if got := NewLine("📊 Quota").String(); got != "📊 Quota" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestLineParamsKeepOrder(t *testing.T) {
	got := NewLine("hello").Font("Menlo").Size(12).Color("#ffffff").String()
	want := "hello | font=Menlo size=12 color=#ffffff"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLineNesting(t *testing.T) {
	if got := NewLine("x").Nest(1).String(); got != "--  x" {
		t.Fatalf("depth 1: %q", got)
	}
	if got := NewLine("x").Nest(2).Size(11).String(); got != "----  x | size=11" {
		t.Fatalf("depth 2: %q", got)
	}
	if got := NewLine("x").Nest(-1).String(); got != "x" {
		t.Fatalf("negative depth: %q", got)
	}
}

func TestLineActions(t *testing.T) {
	if got := NewLine("🔄 Refresh").Refresh().String(); got != "🔄 Refresh | refresh=true" {
		t.Fatalf("refresh: %q", got)
	}
	if got := NewLine("⚙️ Management Center").Href("https://proxy.example").String(); got != "⚙️ Management Center | href=https://proxy.example" {
		t.Fatalf("href: %q", got)
	}
}
