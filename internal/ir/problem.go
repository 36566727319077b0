package ir

// Problem is a compiled inference problem: the declarations a resolver
// would hand to a constraint system for one call.
type Problem struct {
	Name        string
	Description string
	Universe    *Universe

	// Variables are the type variables under solution, in declaration order.
	Variables []VariableDecl

	// Constraints are replayed into the system in this order.
	Constraints []ConstraintDecl

	// Expected is an optional expected type whose variables are fixed first.
	Expected *Type

	// Fix lists variables to fix explicitly before the final fix-all pass.
	Fix []*TypeVariable
}

// VariableDecl declares one type variable under solution.
type VariableDecl struct {
	Var *TypeVariable
	// Local variables belong to the innermost expression being solved;
	// non-local ones are inherited from an enclosing inference context.
	Local bool
}

// ConstraintDecl is one constraint the resolver emits.
type ConstraintDecl struct {
	Kind     RelationKind
	Sub      *Type
	Super    *Type
	Position string // Position label, e.g. "receiver", "param:0"
}

// Variable looks up a declared variable by name.
func (p *Problem) Variable(name string) (*TypeVariable, bool) {
	for _, decl := range p.Variables {
		if decl.Var.Name == name {
			return decl.Var, true
		}
	}
	return nil, false
}

// VariableNames returns declared variable names in declaration order.
func (p *Problem) VariableNames() []string {
	names := make([]string, len(p.Variables))
	for i, decl := range p.Variables {
		names[i] = decl.Var.Name
	}
	return names
}
