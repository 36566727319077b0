package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/tyinfer/internal/ir"
)

// StandardUniverse is the constructor hierarchy shared by tests:
//
//	Any
//	Number : Any        Int : Number        String : Any
//	List<out E> : Any   MutableList<E> : List<E>
//	Comparator<in T> : Any
//	Pair<out A, out B> : Any
type StandardUniverse struct {
	*ir.Universe

	AnyC         *ir.Constructor
	NumberC      *ir.Constructor
	IntC         *ir.Constructor
	StringC      *ir.Constructor
	ListC        *ir.Constructor
	MutableListC *ir.Constructor
	ComparatorC  *ir.Constructor
	PairC        *ir.Constructor
}

// NewStandardUniverse declares the standard constructors in a fresh universe.
func NewStandardUniverse() *StandardUniverse {
	u := &StandardUniverse{Universe: ir.NewUniverse()}

	u.AnyC = u.MustDeclare("Any")
	u.NumberC = u.MustDeclare("Number")
	u.NumberC.Supertypes = []*ir.Type{ir.New(u.AnyC)}
	u.IntC = u.MustDeclare("Int")
	u.IntC.Supertypes = []*ir.Type{ir.New(u.NumberC)}
	u.StringC = u.MustDeclare("String")
	u.StringC.Supertypes = []*ir.Type{ir.New(u.AnyC)}

	u.ListC = u.MustDeclare("List", u.NewParameter("E", ir.Out))
	u.ListC.Supertypes = []*ir.Type{ir.New(u.AnyC)}

	e := u.NewParameter("E", ir.Invariant)
	u.MutableListC = u.MustDeclare("MutableList", e)
	u.MutableListC.Supertypes = []*ir.Type{ir.New(u.ListC, ir.Arg(ir.VariableType(e.Var)))}

	u.ComparatorC = u.MustDeclare("Comparator", u.NewParameter("T", ir.In))
	u.ComparatorC.Supertypes = []*ir.Type{ir.New(u.AnyC)}

	u.PairC = u.MustDeclare("Pair", u.NewParameter("A", ir.Out), u.NewParameter("B", ir.Out))
	u.PairC.Supertypes = []*ir.Type{ir.New(u.AnyC)}
	return u
}

func (u *StandardUniverse) Any() *ir.Type    { return ir.New(u.AnyC) }
func (u *StandardUniverse) Number() *ir.Type { return ir.New(u.NumberC) }
func (u *StandardUniverse) Int() *ir.Type    { return ir.New(u.IntC) }
func (u *StandardUniverse) Str() *ir.Type    { return ir.New(u.StringC) }

func (u *StandardUniverse) List(arg *ir.Type) *ir.Type {
	return ir.New(u.ListC, ir.Arg(arg))
}

func (u *StandardUniverse) MutableList(arg *ir.Type) *ir.Type {
	return ir.New(u.MutableListC, ir.Arg(arg))
}

func (u *StandardUniverse) Comparator(arg *ir.Type) *ir.Type {
	return ir.New(u.ComparatorC, ir.Arg(arg))
}

func (u *StandardUniverse) Pair(a, b *ir.Type) *ir.Type {
	return ir.New(u.PairC, ir.Arg(a), ir.Arg(b))
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
