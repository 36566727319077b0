package ir

import "fmt"

// Universe owns the constructors and type variables of one problem.
//
// Constructors are kept in declaration order; variable IDs increase
// monotonically so that every ordering derived from them is reproducible.
type Universe struct {
	constructors map[string]*Constructor
	order        []*Constructor
	nextID       int64
}

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{constructors: make(map[string]*Constructor)}
}

// NewVariable creates a fresh type variable.
func (u *Universe) NewVariable(name string) *TypeVariable {
	u.nextID++
	return &TypeVariable{ID: u.nextID, Name: name}
}

// NewParameter creates a fresh constructor parameter.
func (u *Universe) NewParameter(name string, variance Variance) Parameter {
	return Parameter{Var: u.NewVariable(name), Variance: variance}
}

// Declare registers a constructor. Names must be unique.
func (u *Universe) Declare(name string, params ...Parameter) (*Constructor, error) {
	if name == "" {
		return nil, fmt.Errorf("constructor name is required")
	}
	if _, exists := u.constructors[name]; exists {
		return nil, fmt.Errorf("constructor %q already declared", name)
	}
	c := &Constructor{Name: name, Params: params}
	u.constructors[name] = c
	u.order = append(u.order, c)
	return c, nil
}

// MustDeclare is like Declare but panics on error.
// Use only in tests or when inputs are known to be valid.
func (u *Universe) MustDeclare(name string, params ...Parameter) *Constructor {
	c, err := u.Declare(name, params...)
	if err != nil {
		panic(err)
	}
	return c
}

// Constructor looks up a constructor by name.
func (u *Universe) Constructor(name string) (*Constructor, bool) {
	c, ok := u.constructors[name]
	return c, ok
}

// Constructors returns all constructors in declaration order.
func (u *Universe) Constructors() []*Constructor {
	out := make([]*Constructor, len(u.order))
	copy(out, u.order)
	return out
}
