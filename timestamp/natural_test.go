package timestamp

import "testing"

func TestNaturalOrder(t *testing.T) {
	if !Natural(3).LessEqual(Natural(5)) {
		t.Fatal("expected 3 <= 5")
	}
	if Natural(5).LessEqual(Natural(3)) {
		t.Fatal("expected 5 > 3")
	}
	if !Natural(3).LessEqual(Natural(3)) {
		t.Fatal("expected 3 <= 3")
	}
}

func TestNaturalJoin(t *testing.T) {
	if got := Natural(3).Join(Natural(5)); got != Natural(5) {
		t.Fatalf("expected join(3,5) == 5, got %v", got)
	}
	if got := Natural(9).Join(Natural(2)); got != Natural(9) {
		t.Fatalf("expected join(9,2) == 9, got %v", got)
	}
}

func TestEqualAndLess(t *testing.T) {
	if !Equal(Natural(4), Natural(4)) {
		t.Fatal("expected 4 == 4")
	}
	if Equal(Natural(4), Natural(5)) {
		t.Fatal("expected 4 != 5")
	}
	if !Less(Natural(4), Natural(5)) {
		t.Fatal("expected 4 < 5")
	}
	if Less(Natural(4), Natural(4)) {
		t.Fatal("expected 4 not< 4")
	}
}
