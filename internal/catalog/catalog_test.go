package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
)

func names(cartons []Carton) []string {
	out := make([]string, 0, len(cartons))
	for _, c := range cartons {
		out = append(out, c.Name)
	}
	return out
}

func TestNewMemoryStorageReturnsDefaults(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()

	got, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := DefaultCartons()
	if !slices.Equal(names(got), names(want)) {
		t.Fatalf("expected default cartons %v, got %v", names(want), names(got))
	}
	if !slices.IsSorted(names(got)) {
		t.Fatalf("expected cartons sorted by name, got %v", names(got))
	}

	// ensure mutation safety
	got[0].Price = 999
	again, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].Price == 999 {
		t.Fatalf("expected defensive copy")
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	c, err := store.Get("  Medium ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "medium" {
		t.Fatalf("expected medium, got %s", c.Name)
	}

	if c, err := store.Get("ＬＡＲＧＥ"); err != nil || c.Name != "large" {
		t.Fatalf("expected full-width name to resolve to large, got %v (%v)", c.Name, err)
	}

	if _, err := store.Get("pallet"); !errors.Is(err, ErrCartonNotFound) {
		t.Fatalf("expected ErrCartonNotFound, got %v", err)
	}
}

func TestReplaceUpdatesState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	err := store.Replace([]Carton{
		{Name: "tall", Length: 200, Width: 200, Height: 600, Price: 9},
		{Name: "flat", Length: 600, Width: 400, Height: 100, Price: 7, DividerPrice: 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"flat", "tall"}; !slices.Equal(names(got), want) {
		t.Fatalf("expected %v, got %v", want, names(got))
	}
}

func TestReplaceRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := [][]Carton{
		nil,
		{},
		{{Name: "", Length: 1, Width: 1, Height: 1}},
		{{Name: "a", Length: 0, Width: 1, Height: 1}},
		{{Name: "a", Length: 1, Width: 1, Height: -1}},
		{{Name: "a", Length: 1, Width: 1, Height: 1, Price: -1}},
		{{Name: "a", Length: 1, Width: 1, Height: 1}, {Name: "A", Length: 2, Width: 2, Height: 2}},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			store := NewMemoryStorage()
			if err := store.Replace(tc); !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog for %v, got %v", tc, err)
			}
		})
	}
}

func TestInteriorAppliesDeductions(t *testing.T) {
	t.Parallel()

	c := Carton{Name: "large", Length: 500, Width: 400, Height: 300}
	got := c.Interior(Deduction{Length: 10, Width: 10, Height: 15, SideLining: 5})

	if got.Length != 480 || got.Width != 380 || got.Height != 285 {
		t.Fatalf("unexpected interior %+v", got)
	}
}

func TestDeductionValidate(t *testing.T) {
	t.Parallel()

	if err := (Deduction{Length: 5, SideLining: 2}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Deduction{Height: -1}).Validate(); !errors.Is(err, ErrInvalidDeduction) {
		t.Fatalf("expected ErrInvalidDeduction, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cartons.yaml")
	content := `cartons:
  - name: shoebox
    length: 330
    width: 220
    height: 120
    price: 4.2
    divider_price: 0.3
    tare_weight: 0.18
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "shoebox" || got[0].DividerPrice != 0.3 || got[0].TareWeight != 0.18 {
		t.Fatalf("unexpected catalog %+v", got)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("cartons: []\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFile(empty); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			cartons := []Carton{{Name: "c", Length: 100 + float64(offset), Width: 100, Height: 100}}
			if err := store.Replace(cartons); err != nil {
				t.Errorf("Replace failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.List(); err != nil {
				t.Errorf("List failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if _, err := store.List(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
