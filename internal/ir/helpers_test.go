package ir

import "testing"

// fixture is a small constructor hierarchy used across ir tests:
//
//	Any
//	Number : Any, Int : Number, String : Any
//	List<out E> : Any, MutableList<E> : List<E>
//	Comparator<in T> : Any, Pair<out A, out B> : Any
type fixture struct {
	u           *Universe
	any         *Constructor
	number      *Constructor
	integer     *Constructor
	str         *Constructor
	list        *Constructor
	mutableList *Constructor
	comparator  *Constructor
	pair        *Constructor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	u := NewUniverse()
	f := &fixture{u: u}

	f.any = u.MustDeclare("Any")
	f.number = u.MustDeclare("Number")
	f.number.Supertypes = []*Type{New(f.any)}
	f.integer = u.MustDeclare("Int")
	f.integer.Supertypes = []*Type{New(f.number)}
	f.str = u.MustDeclare("String")
	f.str.Supertypes = []*Type{New(f.any)}

	f.list = u.MustDeclare("List", u.NewParameter("E", Out))
	f.list.Supertypes = []*Type{New(f.any)}

	mlParam := u.NewParameter("E", Invariant)
	f.mutableList = u.MustDeclare("MutableList", mlParam)
	f.mutableList.Supertypes = []*Type{New(f.list, Arg(VariableType(mlParam.Var)))}

	f.comparator = u.MustDeclare("Comparator", u.NewParameter("T", In))
	f.comparator.Supertypes = []*Type{New(f.any)}

	f.pair = u.MustDeclare("Pair", u.NewParameter("A", Out), u.NewParameter("B", Out))
	f.pair.Supertypes = []*Type{New(f.any)}
	return f
}

func (f *fixture) Any() *Type    { return New(f.any) }
func (f *fixture) Number() *Type { return New(f.number) }
func (f *fixture) Int() *Type    { return New(f.integer) }
func (f *fixture) Str() *Type    { return New(f.str) }

func (f *fixture) List(arg *Type) *Type        { return New(f.list, Arg(arg)) }
func (f *fixture) MutableList(arg *Type) *Type { return New(f.mutableList, Arg(arg)) }
func (f *fixture) Comparator(arg *Type) *Type  { return New(f.comparator, Arg(arg)) }
func (f *fixture) Pair(a, b *Type) *Type       { return New(f.pair, Arg(a), Arg(b)) }
