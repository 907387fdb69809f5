package billing

import "testing"

func TestTieredParentTotal(t *testing.T) {
	cases := []struct {
		q    int
		want int64
	}{
		{0, 0},
		{1, 1399},
		{2, 1399 + 1199},
		{5, 1399 + 4*1199},
		{6, 1399 + 4*1199 + 899},
		{15, 1399 + 4*1199 + 10*899},
		{16, 1399 + 4*1199 + 10*899 + 549},
		{30, 1399 + 4*1199 + 10*899 + 15*549},
		{31, 1399 + 4*1199 + 10*899 + 15*549 + 399},
		{35, 1399 + 4*1199 + 10*899 + 15*549 + 5*399},
	}
	for _, tc := range cases {
		if got := TieredParentTotal(tc.q); got != tc.want {
			t.Errorf("TieredParentTotal(%d) = %d, want %d", tc.q, got, tc.want)
		}
	}
}

func TestChildTotal(t *testing.T) {
	if got := ChildTotal(3); got != 3*399 {
		t.Errorf("ChildTotal(3) = %d, want %d", got, 3*399)
	}
	if got := ChildTotal(0); got != 0 {
		t.Errorf("ChildTotal(0) = %d, want 0", got)
	}
}
