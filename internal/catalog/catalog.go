package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/eugenenazirov/carton-planner/internal/packing"
)

const maxCartons = 200

var (
	// ErrInvalidCatalog indicates the provided cartons violate validation rules.
	ErrInvalidCatalog = errors.New("invalid carton catalog")
	// ErrCartonNotFound is returned when a carton name is not in the catalog.
	ErrCartonNotFound = errors.New("carton not found")
	// ErrInvalidDeduction is returned when a thickness deduction is negative.
	ErrInvalidDeduction = errors.New("deductions must be zero or positive")
)

// Carton is one standard carton size. Dimensions are nominal millimetres
// before wall, flap and lining deductions. TareWeight is in kilograms.
type Carton struct {
	Name         string  `json:"name" yaml:"name"`
	Length       float64 `json:"length" yaml:"length"`
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	Price        float64 `json:"price" yaml:"price"`
	DividerPrice float64 `json:"dividerPrice" yaml:"divider_price"`
	TareWeight   float64 `json:"tareWeight,omitempty" yaml:"tare_weight"`
}

// Deduction is subtracted from a carton's nominal size to get the usable
// interior. SideLining is applied to both walls of the length and width axes.
type Deduction struct {
	Length     float64 `json:"length" yaml:"length"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	SideLining float64 `json:"sideLining" yaml:"side_lining"`
}

// Validate rejects negative or non-finite deductions.
func (d Deduction) Validate() error {
	for _, v := range []float64{d.Length, d.Width, d.Height, d.SideLining} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidDeduction
		}
	}
	return nil
}

// Interior returns the usable interior dimensions after deduction d. The
// result may be zero or negative; the optimizer rejects such cartons.
func (c Carton) Interior(d Deduction) packing.Dimensions {
	return packing.Dimensions{
		Length: c.Length - d.Length - 2*d.SideLining,
		Width:  c.Width - d.Width - 2*d.SideLining,
		Height: c.Height - d.Height,
	}
}

// Storage provides access to the carton catalog.
type Storage interface {
	List() ([]Carton, error)
	Get(name string) (Carton, error)
	Replace(cartons []Carton) error
}

// MemoryStorage keeps the catalog in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	cartons []Carton
}

var defaultCartons = []Carton{
	{Name: "small", Length: 300, Width: 200, Height: 150, Price: 8.5, DividerPrice: 0.6, TareWeight: 0.25},
	{Name: "medium", Length: 400, Width: 300, Height: 250, Price: 12, DividerPrice: 0.9, TareWeight: 0.45},
	{Name: "export", Length: 490, Width: 390, Height: 290, Price: 15, DividerPrice: 1.1, TareWeight: 0.6},
	{Name: "large", Length: 500, Width: 400, Height: 300, Price: 16.5, DividerPrice: 1.2, TareWeight: 0.7},
	{Name: "x-large", Length: 600, Width: 400, Height: 400, Price: 21, DividerPrice: 1.5, TareWeight: 0.95},
}

// NewMemoryStorage initialises storage with a copy of the default catalog.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		cartons: cloneAndSort(defaultCartons),
	}
}

// DefaultCartons returns a copy of the built-in catalog.
func DefaultCartons() []Carton {
	return cloneAndSort(defaultCartons)
}

// List returns a copy of the catalog sorted by name.
func (s *MemoryStorage) List() ([]Carton, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneAndSort(s.cartons), nil
}

// Get looks a carton up by name, case-insensitively.
func (s *MemoryStorage) Get(name string) (Carton, error) {
	key := normalizeName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cartons {
		if normalizeName(c.Name) == key {
			return c, nil
		}
	}
	return Carton{}, fmt.Errorf("%w: %q", ErrCartonNotFound, name)
}

// Replace validates and stores a new catalog.
func (s *MemoryStorage) Replace(cartons []Carton) error {
	if err := Validate(cartons); err != nil {
		return err
	}

	sorted := cloneAndSort(cartons)

	s.mu.Lock()
	s.cartons = sorted
	s.mu.Unlock()

	return nil
}

// Validate checks that a catalog is non-empty, has unique names, positive
// dimensions and non-negative prices.
func Validate(cartons []Carton) error {
	if len(cartons) == 0 {
		return fmt.Errorf("%w: at least one carton is required", ErrInvalidCatalog)
	}
	if len(cartons) > maxCartons {
		return fmt.Errorf("%w: at most %d cartons are allowed", ErrInvalidCatalog, maxCartons)
	}

	seen := make(map[string]struct{}, len(cartons))
	for _, c := range cartons {
		key := normalizeName(c.Name)
		if key == "" {
			return fmt.Errorf("%w: carton name is required", ErrInvalidCatalog)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate carton %q", ErrInvalidCatalog, c.Name)
		}
		seen[key] = struct{}{}

		if !(c.Length > 0 && c.Width > 0 && c.Height > 0) {
			return fmt.Errorf("%w: carton %q needs positive dimensions", ErrInvalidCatalog, c.Name)
		}
		if c.Price < 0 || c.DividerPrice < 0 || c.TareWeight < 0 {
			return fmt.Errorf("%w: carton %q has a negative price or weight", ErrInvalidCatalog, c.Name)
		}
	}
	return nil
}

// normalizeName folds compatibility forms so "ＬＡＲＧＥ" and "large" collide.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(name)))
}

func cloneAndSort(src []Carton) []Carton {
	if len(src) == 0 {
		return []Carton{}
	}

	out := make([]Carton, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
