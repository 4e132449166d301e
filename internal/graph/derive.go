package graph

import "fmt"

// Input is a node readable as type A: satisfied by *Value[A],
// *Observer[A] and *Derived[A]. Derive constructors take their inputs
// through this interface so the compute function's signature is
// checked against the declared input types at compile time.
type Input[A any] interface {
	AnyNode
	Get() (A, error)
}

// Derive1 creates a derived node over one input.
func Derive1[A, T comparable](name string, a Input[A], fn func(A) T) *Derived[T] {
	mustFn(name, fn == nil)
	d, _ := NewDerived(name, []AnyNode{a}, func() (T, error) {
		av, err := a.Get()
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(av), nil
	})
	return d
}

// Derive2 creates a derived node over two inputs.
func Derive2[A, B, T comparable](name string, a Input[A], b Input[B], fn func(A, B) T) *Derived[T] {
	mustFn(name, fn == nil)
	d, _ := NewDerived(name, []AnyNode{a, b}, func() (T, error) {
		var zero T
		av, err := a.Get()
		if err != nil {
			return zero, err
		}
		bv, err := b.Get()
		if err != nil {
			return zero, err
		}
		return fn(av, bv), nil
	})
	return d
}

// Derive3 creates a derived node over three inputs.
func Derive3[A, B, C, T comparable](name string, a Input[A], b Input[B], c Input[C], fn func(A, B, C) T) *Derived[T] {
	mustFn(name, fn == nil)
	d, _ := NewDerived(name, []AnyNode{a, b, c}, func() (T, error) {
		var zero T
		av, err := a.Get()
		if err != nil {
			return zero, err
		}
		bv, err := b.Get()
		if err != nil {
			return zero, err
		}
		cv, err := c.Get()
		if err != nil {
			return zero, err
		}
		return fn(av, bv, cv), nil
	})
	return d
}

// Derive4 creates a derived node over four inputs.
func Derive4[A, B, C, D, T comparable](name string, a Input[A], b Input[B], c Input[C], dd Input[D], fn func(A, B, C, D) T) *Derived[T] {
	mustFn(name, fn == nil)
	d, _ := NewDerived(name, []AnyNode{a, b, c, dd}, func() (T, error) {
		var zero T
		av, err := a.Get()
		if err != nil {
			return zero, err
		}
		bv, err := b.Get()
		if err != nil {
			return zero, err
		}
		cv, err := c.Get()
		if err != nil {
			return zero, err
		}
		dv, err := dd.Get()
		if err != nil {
			return zero, err
		}
		return fn(av, bv, cv, dv), nil
	})
	return d
}

// DeriveN creates a derived node over any number of same-typed inputs.
// The compute function receives the input values in declared order.
// This is the convenience form for ad-hoc computations that do not
// warrant a dedicated node type.
func DeriveN[A, T comparable](name string, fn func([]A) T, inputs ...Input[A]) *Derived[T] {
	mustFn(name, fn == nil)
	erased := make([]AnyNode, len(inputs))
	for i, in := range inputs {
		erased[i] = in
	}
	d, _ := NewDerived(name, erased, func() (T, error) {
		vals := make([]A, len(inputs))
		for i, in := range inputs {
			v, err := in.Get()
			if err != nil {
				var zero T
				return zero, err
			}
			vals[i] = v
		}
		return fn(vals), nil
	})
	return d
}

func mustFn(name string, nilFn bool) {
	if nilFn {
		panic(fmt.Sprintf("derived node %q: nil compute function", name))
	}
}
