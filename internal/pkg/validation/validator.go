package validation

import (
	"errors"
	"fmt"

	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

var ErrInvalidRecord = errors.New("invalid draw record")

// Validator implements draw record validation
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() interfaces.Validator {
	return &Validator{}
}

// ValidateDrawRecord checks pool sizes, ranges and uniqueness. Records are never repaired.
func (v *Validator) ValidateDrawRecord(record *models.DrawRecord, cfg models.GameConfig) error {
	if record == nil {
		return fmt.Errorf("%w: record cannot be nil", ErrInvalidRecord)
	}

	if err := validatePool("numbers", record.Numbers, cfg.NumbersPerDraw, cfg.MaxValue); err != nil {
		return err
	}

	if cfg.DualPool() {
		if err := validatePool("euro numbers", record.EuroNumbers, cfg.SecondaryCount, cfg.SecondaryMaxValue); err != nil {
			return err
		}
	} else if len(record.EuroNumbers) > 0 {
		return fmt.Errorf("%w: single-pool game with %d euro numbers", ErrInvalidRecord, len(record.EuroNumbers))
	}

	if record.Sum != models.SumOf(record.Numbers) {
		return fmt.Errorf("%w: sum %d does not match numbers", ErrInvalidRecord, record.Sum)
	}

	return nil
}

func validatePool(name string, values []int, count, maxValue int) error {
	if len(values) != count {
		return fmt.Errorf("%w: expected %d %s, got %d", ErrInvalidRecord, count, name, len(values))
	}

	seen := make(map[int]struct{}, len(values))
	for _, n := range values {
		if n < 1 || n > maxValue {
			return fmt.Errorf("%w: %s value %d outside [1, %d]", ErrInvalidRecord, name, n, maxValue)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate %s value %d", ErrInvalidRecord, name, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
