// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package amount

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Fraction is a numerator/denominator ratio, used for the reward fee.
type Fraction struct {
	Numerator   uint32 `json:"numerator" yaml:"numerator"`
	Denominator uint32 `json:"denominator" yaml:"denominator"`
}

// NewFraction creates a fraction without validating it.
func NewFraction(numerator, denominator uint32) Fraction {
	return Fraction{Numerator: numerator, Denominator: denominator}
}

// Validate checks the fraction is well formed and strictly below max.
func (f Fraction) Validate(max Fraction) error {
	if f.Denominator == 0 {
		return errors.New("denominator must be positive")
	}
	if f.Numerator > f.Denominator {
		return errors.New("fraction must not exceed one")
	}
	// f < max  <=>  f.num * max.den < max.num * f.den
	if uint64(f.Numerator)*uint64(max.Denominator) >= uint64(max.Numerator)*uint64(f.Denominator) {
		return errors.Errorf("fraction %v must be below %v", f, max)
	}
	return nil
}

// Apply returns floor(x * f).
func (f Fraction) Apply(x *uint256.Int) *uint256.Int {
	if f.Denominator == 0 || f.Numerator == 0 {
		return new(uint256.Int)
	}
	return Proportional(x, uint256.NewInt(uint64(f.Numerator)), uint256.NewInt(uint64(f.Denominator)))
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}
