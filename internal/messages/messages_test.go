package messages

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	en := MustLoad("en")
	got := en.Format("serializable.inner.class.with.non.serializable.outer.class.problem.descriptor", "a.Outer.Inner")
	want := "Inner class 'a.Outer.Inner' is serializable while its outer class is not"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
	if got := en.Format("no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should render as itself, got %q", got)
	}
}

func TestLocaleFallback(t *testing.T) {
	de := MustLoad("de_DE")
	if de.Locale() != "de" {
		t.Fatalf("Locale = %q, want de", de.Locale())
	}
	if got := de.Format("fix.AddSerialVersionUIDField"); got != "Feld 'serialVersionUID' hinzufügen" {
		t.Fatalf("de text = %q", got)
	}
	// missing in de, present in en
	got := de.Format("serializable.class.without.serial.version.uid.problem.descriptor", "x.Y")
	if got != "'x.Y' does not define a 'serialVersionUID' field" {
		t.Fatalf("fallback text = %q", got)
	}

	unknown := MustLoad("fr")
	if unknown.Locale() != DefaultLocale {
		t.Fatalf("unknown locale should fall back to %s, got %s", DefaultLocale, unknown.Locale())
	}
}

func TestLocales(t *testing.T) {
	if diff := cmp.Diff([]string{"de", "en"}, Locales()); diff != "" {
		t.Fatalf("Locales mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlay(t *testing.T) {
	f := Overlay(MustLoad("en"), map[string]string{"custom.problem": "'%s' lacks a marker"})
	if got := f.Format("custom.problem", "a.B"); got != "'a.B' lacks a marker" {
		t.Fatalf("overlay = %q", got)
	}
	if got := f.Format("fix.AddSerialVersionUIDField"); got != "Add 'serialVersionUID' field" {
		t.Fatalf("base = %q", got)
	}
}
