package fitsview

import "testing"

func TestContentHash(t *testing.T) {
	full := ContentHash([]byte("fitsview"), 0)
	if len(full) != 16 {
		t.Fatalf("len = %d, want 16", len(full))
	}
	if got := ContentHash([]byte("fitsview"), 8); got != full[:8] {
		t.Errorf("truncated = %q, want %q", got, full[:8])
	}
	if got := ContentHash([]byte("fitsview"), 32); got != full {
		t.Errorf("over-long length = %q, want %q", got, full)
	}
}

func TestView_Hash(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.LoadData([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 5, 2, false); err != nil {
		t.Fatal(err)
	}
	if h := e.View().Hash(); h != "" {
		t.Fatalf("hash before cut = %q", h)
	}

	if err := e.Rescale(0, 9); err != nil {
		t.Fatal(err)
	}
	wide := e.View().Hash()
	if err := e.Rescale(3, 6); err != nil {
		t.Fatal(err)
	}
	narrow := e.View().Hash()
	if wide == "" || wide == narrow {
		t.Fatalf("hashes %q and %q should differ", wide, narrow)
	}

	if err := e.Rescale(0, 9); err != nil {
		t.Fatal(err)
	}
	if e.View().Hash() != wide {
		t.Fatal("same cuts produced a different hash")
	}
}
