/*
Package lp holds a linear or mixed-integer program in the dense row form the
HiGHS bindings consume: a cost coefficient and bound pair per column, and
constraint rows of the shape [lower, coefficients..., upper].
*/
package lp

import (
	"fmt"
	"math"
)

// Term is one coefficient in a constraint row.
type Term struct {
	Col  int
	Coef float64
}

type variable struct {
	name    string
	cost    float64
	lower   float64
	upper   float64
	integer bool
}

type constraint struct {
	name  string
	lower float64
	upper float64
	terms []Term
}

// Program is assembled once per solve and handed read-only to the solver
// adapter.
type Program struct {
	vars  []variable
	index map[string]int
	rows  []constraint
}

// New returns an empty program.
func New() *Program {
	return &Program{index: make(map[string]int)}
}

// AddVariable appends a continuous column and returns its index. Variable
// names must be unique; duplicates panic since they indicate a formulation
// bug, not user input.
func (p *Program) AddVariable(name string, cost, lower, upper float64) int {
	return p.add(name, cost, lower, upper, false)
}

// AddBinary appends an integer column bounded to {0,1}.
func (p *Program) AddBinary(name string, cost float64) int {
	return p.add(name, cost, 0, 1, true)
}

func (p *Program) add(name string, cost, lower, upper float64, integer bool) int {
	if _, exists := p.index[name]; exists {
		panic(fmt.Sprintf("lp: duplicate variable %q", name))
	}
	if lower > upper {
		panic(fmt.Sprintf("lp: variable %q has crossed bounds", name))
	}
	col := len(p.vars)
	p.vars = append(p.vars, variable{name, cost, lower, upper, integer})
	p.index[name] = col
	return col
}

// Column resolves a variable name to its column index.
func (p *Program) Column(name string) (int, bool) {
	col, ok := p.index[name]
	return col, ok
}

// AddConstraint appends a row lower <= terms <= upper. Equality rows use
// lower == upper.
func (p *Program) AddConstraint(name string, lower float64, terms []Term, upper float64) {
	for _, term := range terms {
		if term.Col < 0 || term.Col >= len(p.vars) {
			panic(fmt.Sprintf("lp: constraint %q references unknown column %d", name, term.Col))
		}
	}
	p.rows = append(p.rows, constraint{name, lower, upper, terms})
}

// AddEquality appends an equality row.
func (p *Program) AddEquality(name string, terms []Term, value float64) {
	p.AddConstraint(name, value, terms, value)
}

// NumVariables returns the column count.
func (p *Program) NumVariables() int {
	return len(p.vars)
}

// NumConstraints returns the row count.
func (p *Program) NumConstraints() int {
	return len(p.rows)
}

// VariableName returns the name of a column.
func (p *Program) VariableName(col int) string {
	return p.vars[col].name
}

// ConstraintName returns the name of a row.
func (p *Program) ConstraintName(row int) string {
	return p.rows[row].name
}

// IsMixedInteger reports whether any column is integer.
func (p *Program) IsMixedInteger() bool {
	for _, v := range p.vars {
		if v.integer {
			return true
		}
	}
	return false
}

// CostCoefficients returns the objective coefficient per column.
func (p *Program) CostCoefficients() []float64 {
	costs := make([]float64, len(p.vars))
	for i, v := range p.vars {
		costs[i] = v.cost
	}
	return costs
}

// Bounds returns the [lower, upper] box per column.
func (p *Program) Bounds() [][2]float64 {
	bounds := make([][2]float64, len(p.vars))
	for i, v := range p.vars {
		bounds[i] = [2]float64{v.lower, v.upper}
	}
	return bounds
}

// Constraints returns dense rows in the form [lower, coefficients..., upper].
func (p *Program) Constraints() [][]float64 {
	rows := make([][]float64, len(p.rows))
	for i, c := range p.rows {
		row := make([]float64, len(p.vars)+2)
		row[0] = c.lower
		for _, term := range c.terms {
			row[term.Col+1] += term.Coef
		}
		row[len(row)-1] = c.upper
		rows[i] = row
	}
	return rows
}

// Integrality returns the indices of integer columns. Empty for a pure LP.
func (p *Program) Integrality() []int {
	cols := []int{}
	for i, v := range p.vars {
		if v.integer {
			cols = append(cols, i)
		}
	}
	return cols
}

// Objective evaluates the objective at a column solution.
func (p *Program) Objective(columns []float64) float64 {
	total := 0.0
	for i, v := range p.vars {
		if i < len(columns) && !math.IsInf(columns[i], 0) {
			total += v.cost * columns[i]
		}
	}
	return total
}
