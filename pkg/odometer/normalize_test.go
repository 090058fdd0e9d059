package odometer

import "testing"

func TestNormalizeFullWidthDigits(t *testing.T) {
	got := Normalize("１１８５０２", false)
	if got != "118502" {
		t.Fatalf("expected 118502 got %q", got)
	}
}

func TestNormalizeConfusables(t *testing.T) {
	got := Normalize("I23456", true)
	if got != "123456" {
		t.Fatalf("expected 123456 got %q", got)
	}
	got = Normalize("OIlSB", true)
	if got != "01158" {
		t.Fatalf("expected 01158 got %q", got)
	}
}

func TestNormalizeConfusablesDisabled(t *testing.T) {
	got := Normalize("I23456", false)
	if got != "I23456" {
		t.Fatalf("expected untouched letters, got %q", got)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("odo \t 118502\t\tkm", false)
	if got != "odo 118502 km" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeKeepsLines(t *testing.T) {
	got := Normalize("ODO  \n  118502   km", true)
	if got != "0D0\n118502 km" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"ODO １１８５０２ KM",
		"  I23456 \t S8 \n\n B ",
		"",
		"no digits at all",
	}
	for _, in := range inputs {
		for _, fold := range []bool{true, false} {
			once := Normalize(in, fold)
			twice := Normalize(once, fold)
			if once != twice {
				t.Fatalf("not idempotent for %q fold=%v: %q != %q", in, fold, once, twice)
			}
		}
	}
}
