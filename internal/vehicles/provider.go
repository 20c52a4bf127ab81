package vehicles

import (
	"context"
	"errors"
	"hash/fnv"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates no vehicle data exists for the plate.
	ErrNotFound = errors.New("vehicles: plate not found")
	// ErrInvalidPlate is returned for plates outside the Brazilian formats.
	ErrInvalidPlate = errors.New("vehicles: invalid plate")
)

// VehicleInfo is the registry data returned by a plate lookup.
type VehicleInfo struct {
	Plate string `json:"plate"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
}

// Provider resolves a license plate to vehicle registry data.
type Provider interface {
	Lookup(ctx context.Context, plate string) (VehicleInfo, error)
}

// old format ABC1234 and Mercosul format ABC1D23
var plateRe = regexp.MustCompile(`^[A-Z]{3}[0-9][0-9A-Z][0-9]{2}$`)

// NormalizePlate uppercases and strips separators from a raw plate string.
func NormalizePlate(raw string) (string, error) {
	plate := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(raw))
	if !plateRe.MatchString(plate) {
		return "", ErrInvalidPlate
	}
	return plate, nil
}

// StaticProvider serves deterministic vehicle data derived from the plate
// itself, with a short artificial delay standing in for an external registry
// call. Useful until a real registry integration exists.
type StaticProvider struct {
	delay time.Duration
}

// NewStaticProvider constructs a StaticProvider.
func NewStaticProvider(delay time.Duration) *StaticProvider {
	return &StaticProvider{delay: delay}
}

var catalog = []struct {
	brand  string
	models []string
}{
	{"Volkswagen", []string{"Gol", "Polo", "Virtus"}},
	{"Fiat", []string{"Uno", "Argo", "Strada"}},
	{"Chevrolet", []string{"Onix", "Celta", "S10"}},
	{"Ford", []string{"Ka", "Fiesta", "Ranger"}},
	{"Toyota", []string{"Corolla", "Hilux", "Yaris"}},
	{"Honda", []string{"Civic", "Fit", "HR-V"}},
}

var colors = []string{"Prata", "Preto", "Branco", "Vermelho", "Azul", "Cinza"}

// Lookup returns registry data for the plate. The same plate always maps to
// the same vehicle. Honors context cancellation during the simulated delay.
func (p *StaticProvider) Lookup(ctx context.Context, rawPlate string) (VehicleInfo, error) {
	plate, err := NormalizePlate(rawPlate)
	if err != nil {
		return VehicleInfo{}, err
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return VehicleInfo{}, ctx.Err()
		case <-timer.C:
		}
	}

	h := fnv.New32a()
	h.Write([]byte(plate))
	seed := h.Sum32()

	// a slice of the plate space resolves to no record at all
	if seed%7 == 0 {
		return VehicleInfo{}, ErrNotFound
	}

	entry := catalog[int(seed)%len(catalog)]
	return VehicleInfo{
		Plate: plate,
		Brand: entry.brand,
		Model: entry.models[int(seed>>8)%len(entry.models)],
		Year:  2008 + int(seed>>16)%18,
		Color: colors[int(seed>>4)%len(colors)],
	}, nil
}
