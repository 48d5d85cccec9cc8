package rpc

// HandlerFunc is the type-erased form of a registered function.
// It decodes args, runs the function and writes the result into result,
// returning the number of result bytes.
type HandlerFunc func(args []byte, result []byte) (int, error)

// Binding pairs a Signature with its HandlerFunc.
// The layout is computed once when the binding is created.
type Binding struct {
	Signature Signature
	Invoke    HandlerFunc
}

// Raw creates a Binding from a hand-written HandlerFunc.
func Raw(sig Signature, fn HandlerFunc) Binding {
	return Binding{Signature: sig, Invoke: fn}
}

// Func0 binds func() R.
func Func0[R Primitive](fn func() R) Binding {
	return Binding{
		Signature: Signature{Result: Schema{TypeOf[R]()}},
		Invoke: func(args, result []byte) (int, error) {
			return Serialize(result, fn()), nil
		},
	}
}

// Func1 binds func(A) R.
func Func1[A, R Primitive](fn func(A) R) Binding {
	return Binding{
		Signature: Signature{
			Args:   Schema{TypeOf[A]()},
			Result: Schema{TypeOf[R]()},
		},
		Invoke: func(args, result []byte) (int, error) {
			return Serialize(result, fn(Deserialize[A](args))), nil
		},
	}
}

// Func2 binds func(A, B) R.
func Func2[A, B, R Primitive](fn func(A, B) R) Binding {
	offB := SizeOf[A]()
	return Binding{
		Signature: Signature{
			Args:   Schema{TypeOf[A](), TypeOf[B]()},
			Result: Schema{TypeOf[R]()},
		},
		Invoke: func(args, result []byte) (int, error) {
			r := fn(Deserialize[A](args), Deserialize[B](args[offB:]))
			return Serialize(result, r), nil
		},
	}
}

// Func3 binds func(A, B, C) R.
func Func3[A, B, C, R Primitive](fn func(A, B, C) R) Binding {
	offB := SizeOf[A]()
	offC := offB + SizeOf[B]()
	return Binding{
		Signature: Signature{
			Args:   Schema{TypeOf[A](), TypeOf[B](), TypeOf[C]()},
			Result: Schema{TypeOf[R]()},
		},
		Invoke: func(args, result []byte) (int, error) {
			r := fn(Deserialize[A](args), Deserialize[B](args[offB:]), Deserialize[C](args[offC:]))
			return Serialize(result, r), nil
		},
	}
}

// Proc0 binds func() without result.
func Proc0(fn func()) Binding {
	return Binding{
		Invoke: func(args, result []byte) (int, error) {
			fn()
			return 0, nil
		},
	}
}

// Proc1 binds func(A) without result.
func Proc1[A Primitive](fn func(A)) Binding {
	return Binding{
		Signature: Signature{Args: Schema{TypeOf[A]()}},
		Invoke: func(args, result []byte) (int, error) {
			fn(Deserialize[A](args))
			return 0, nil
		},
	}
}

// Proc2 binds func(A, B) without result.
func Proc2[A, B Primitive](fn func(A, B)) Binding {
	offB := SizeOf[A]()
	return Binding{
		Signature: Signature{Args: Schema{TypeOf[A](), TypeOf[B]()}},
		Invoke: func(args, result []byte) (int, error) {
			fn(Deserialize[A](args), Deserialize[B](args[offB:]))
			return 0, nil
		},
	}
}
