package credit

import (
	"errors"
	"testing"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		required int
		free     int
		paid     int
		wantFree int
		wantPaid int
		wantErr  error
	}{
		{name: "free covers everything", required: 5, free: 10, paid: 3, wantFree: 5, wantPaid: 0},
		{name: "exact free match", required: 5, free: 5, paid: 3, wantFree: 5, wantPaid: 0},
		{name: "mixed split", required: 5, free: 3, paid: 10, wantFree: 3, wantPaid: 2},
		{name: "paid only", required: 4, free: 0, paid: 4, wantFree: 0, wantPaid: 4},
		{name: "exact total match", required: 13, free: 3, paid: 10, wantFree: 3, wantPaid: 10},
		{name: "insufficient", required: 5, free: 3, paid: 0, wantErr: ErrInsufficientCredits},
		{name: "both empty", required: 1, free: 0, paid: 0, wantErr: ErrInsufficientCredits},
		{name: "zero required", required: 0, free: 10, paid: 10, wantErr: ErrInvalidAmount},
		{name: "negative required", required: -1, free: 10, paid: 10, wantErr: ErrInvalidAmount},
		{name: "negative balance", required: 1, free: -1, paid: 10, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free, paid, err := Allocate(tt.required, tt.free, tt.paid)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if free != tt.wantFree || paid != tt.wantPaid {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tt.wantFree, tt.wantPaid, free, paid)
			}
		})
	}
}

func TestAllocateProperties(t *testing.T) {
	// Exhaustive sweep over a small cube: every successful allocation must
	// sum to required, stay within balances, and exhaust free credits first.
	for required := 1; required <= 12; required++ {
		for free := 0; free <= 12; free++ {
			for paid := 0; paid <= 12; paid++ {
				f, p, err := Allocate(required, free, paid)
				if free+paid < required {
					if !errors.Is(err, ErrInsufficientCredits) {
						t.Fatalf("Allocate(%d,%d,%d): expected ErrInsufficientCredits, got %v", required, free, paid, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("Allocate(%d,%d,%d): unexpected error %v", required, free, paid, err)
				}
				if f+p != required {
					t.Fatalf("Allocate(%d,%d,%d): split %d+%d != required", required, free, paid, f, p)
				}
				if f < 0 || p < 0 || f > free || p > paid {
					t.Fatalf("Allocate(%d,%d,%d): split (%d,%d) out of bounds", required, free, paid, f, p)
				}
				if f != min(free, required) {
					t.Fatalf("Allocate(%d,%d,%d): free not exhausted first, got %d", required, free, paid, f)
				}
				if free >= required && p != 0 {
					t.Fatalf("Allocate(%d,%d,%d): paid touched despite sufficient free", required, free, paid)
				}
			}
		}
	}
}
