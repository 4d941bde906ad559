package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidLetters(t *testing.T) {
	if got := ValidLetters(2); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("expected [A B], got %v", got)
	}
	if got := ValidLetters(10); len(got) != 10 || got[9] != "J" {
		t.Fatalf("expected A..J, got %v", got)
	}
	for _, n := range []int{-1, 0, 1, 11} {
		if got := ValidLetters(n); got != nil {
			t.Fatalf("expected nil for %d, got %v", n, got)
		}
	}
}

func TestIsValidLetter(t *testing.T) {
	if !IsValidLetter(3, "C") {
		t.Fatalf("expected C valid for 3 options")
	}
	if IsValidLetter(2, "C") {
		t.Fatalf("expected C invalid for 2 options")
	}
	if IsValidLetter(2, "") || IsValidLetter(2, "AB") || IsValidLetter(2, "a") {
		t.Fatalf("expected malformed letters rejected")
	}
	if NormalizeLetter(" b ") != "B" {
		t.Fatalf("expected normalization to upper case")
	}
}

func TestFinalizeDerivedFields(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := Decision{ID: 1, InitialChoice: "A", InitialAt: start}

	switched := d.Finalize("B", start.Add(42*time.Second+900*time.Millisecond))
	if !*switched.ChangedMind || Path(switched.InitialChoice, *switched.FinalChoice) != "AB" {
		t.Fatalf("expected changed mind on path AB, got %+v", switched)
	}
	if *switched.TimeToDecide != 42 {
		t.Fatalf("expected floor of 42.9s, got %d", *switched.TimeToDecide)
	}

	stayed := d.Finalize("A", start)
	if *stayed.ChangedMind || Path(stayed.InitialChoice, *stayed.FinalChoice) != "AA" {
		t.Fatalf("expected unchanged on path AA, got %+v", stayed)
	}
	if *stayed.TimeToDecide != 0 {
		t.Fatalf("expected 0 seconds, got %d", *stayed.TimeToDecide)
	}
	if d.FinalChoice != nil {
		t.Fatalf("finalize must not mutate the receiver")
	}
}

func TestTimeToDecideNeverNegative(t *testing.T) {
	now := time.Now()
	if got := TimeToDecide(now, now.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestValidateDilemma(t *testing.T) {
	ok := Dilemma{Name: "doctor", OptionsCount: 2, Options: []Option{{Letter: "A"}, {Letter: "B"}}}
	if err := ValidateDilemma(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	mismatch := Dilemma{Name: "doctor", OptionsCount: 3, Options: []Option{{Letter: "A"}, {Letter: "B"}}}
	if err := ValidateDilemma(mismatch); !errors.Is(err, ErrInvalidDilemma) {
		t.Fatalf("expected invalid dilemma, got %v", err)
	}
	gap := Dilemma{Name: "doctor", OptionsCount: 2, Options: []Option{{Letter: "A"}, {Letter: "C"}}}
	if err := ValidateDilemma(gap); !errors.Is(err, ErrInvalidDilemma) {
		t.Fatalf("expected invalid letters, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := map[error]Kind{
		ErrDilemmaNotFound:       KindNotFound,
		ErrUserNotFound:          KindNotFound,
		ErrInvalidChoice:         KindValidation,
		ErrInitialChoiceRequired: KindValidation,
		ErrAlreadyParticipated:   KindConflict,
		ErrAlreadyFinalized:      KindConflict,
		errors.New("boom"):       KindInternal,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("%v: expected %s, got %s", err, want, got)
		}
	}
}
