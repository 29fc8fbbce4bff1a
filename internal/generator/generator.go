// Package generator builds practice character sequences.
package generator

import (
	"math/rand"
	"strings"
	"time"
)

// KochOrder is the standard character introduction order for Koch-method
// training. The default practice charset is a prefix of this sequence.
const KochOrder = "KMURESNAPTLWI.JZ=FOY,VG5/Q92H38B?47C1D60X"

// Generator produces randomized practice groups.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate draws characters uniformly from the charset and arranges them
// into groups of groupSize separated by single spaces.
func (g *Generator) Generate(charset []rune, groups, groupSize int) string {
	return g.generate(charset, groups, groupSize, func(int) rune {
		return charset[g.rnd.Intn(len(charset))]
	})
}

// GenerateWeighted draws characters with a bias toward the weak set:
// each weak character's weight is multiplied by 1 + factor.
func (g *Generator) GenerateWeighted(charset []rune, groups, groupSize int, weakSet map[rune]struct{}, factor float64) string {
	weights := make([]float64, len(charset))
	total := 0.0
	for i, ch := range charset {
		w := 1.0
		if _, ok := weakSet[ch]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}
	return g.generate(charset, groups, groupSize, func(int) rune {
		r := g.rnd.Float64() * total
		acc := 0.0
		for i, w := range weights {
			acc += w
			if r <= acc {
				return charset[i]
			}
		}
		return charset[len(charset)-1]
	})
}

func (g *Generator) generate(charset []rune, groups, groupSize int, pick func(int) rune) string {
	if len(charset) == 0 || groups <= 0 || groupSize <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < groups; i++ {
		if i > 0 {
			b.WriteRune(' ')
		}
		for j := 0; j < groupSize; j++ {
			b.WriteRune(pick(j))
		}
	}
	return b.String()
}
