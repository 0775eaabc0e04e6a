package rpc

import "github.com/danmuck/bindrpc/internal/pack"

// Statically typed adapters. Argument and result codecs are resolved once at
// bind time and the function is called directly, without reflect.Call.

func arg[T any](c pack.TypedCodec[T], u *pack.Unpacker, i int) (T, error) {
	v, err := c.Next(u)
	if err != nil {
		return v, badArg(i, err)
	}
	return v, nil
}

func result[R any](c pack.TypedCodec[R], p *pack.Packer, r R, err error) error {
	if err != nil {
		return failed(err)
	}
	c.Put(p, r)
	return nil
}

// Func0 adapts a function returning a value and an error. Func1 through
// Func6 take that many arguments.
func Func0[R any](fn func() (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn()
		return result(ret, p, r, err)
	})
}

func Func1[A0, R any](fn func(A0) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0)
		return result(ret, p, r, err)
	})
}

func Func2[A0, A1, R any](fn func(A0, A1) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type(), c1.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0, a1)
		return result(ret, p, r, err)
	})
}

func Func3[A0, A1, A2, R any](fn func(A0, A1, A2) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0, a1, a2)
		return result(ret, p, r, err)
	})
}

func Func4[A0, A1, A2, A3, R any](fn func(A0, A1, A2, A3) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0, a1, a2, a3)
		return result(ret, p, r, err)
	})
}

func Func5[A0, A1, A2, A3, A4, R any](fn func(A0, A1, A2, A3, A4) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	c4, err := pack.CodecFor[A4]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type(), c4.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		a4, err := arg(c4, u, 4)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0, a1, a2, a3, a4)
		return result(ret, p, r, err)
	})
}

func Func6[A0, A1, A2, A3, A4, A5, R any](fn func(A0, A1, A2, A3, A4, A5) (R, error)) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	ret, err := pack.CodecFor[R]()
	if err != nil {
		return nil, err
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	c4, err := pack.CodecFor[A4]()
	if err != nil {
		return nil, err
	}
	c5, err := pack.CodecFor[A5]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: ret.Type(), Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type(), c4.Type(), c5.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		a4, err := arg(c4, u, 4)
		if err != nil {
			return err
		}
		a5, err := arg(c5, u, 5)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		r, err := fn(a0, a1, a2, a3, a4, a5)
		return result(ret, p, r, err)
	})
}

// Proc0 adapts a function that only returns an error; its result is unit.
// Proc1 through Proc6 take that many arguments.
func Proc0(fn func() error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc1[A0 any](fn func(A0) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc2[A0, A1 any](fn func(A0, A1) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type(), c1.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0, a1); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc3[A0, A1, A2 any](fn func(A0, A1, A2) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0, a1, a2); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc4[A0, A1, A2, A3 any](fn func(A0, A1, A2, A3) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0, a1, a2, a3); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc5[A0, A1, A2, A3, A4 any](fn func(A0, A1, A2, A3, A4) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	c4, err := pack.CodecFor[A4]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type(), c4.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		a4, err := arg(c4, u, 4)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0, a1, a2, a3, a4); err != nil {
			return failed(err)
		}
		return nil
	})
}

func Proc6[A0, A1, A2, A3, A4, A5 any](fn func(A0, A1, A2, A3, A4, A5) error) (*Callable, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}
	c0, err := pack.CodecFor[A0]()
	if err != nil {
		return nil, err
	}
	c1, err := pack.CodecFor[A1]()
	if err != nil {
		return nil, err
	}
	c2, err := pack.CodecFor[A2]()
	if err != nil {
		return nil, err
	}
	c3, err := pack.CodecFor[A3]()
	if err != nil {
		return nil, err
	}
	c4, err := pack.CodecFor[A4]()
	if err != nil {
		return nil, err
	}
	c5, err := pack.CodecFor[A5]()
	if err != nil {
		return nil, err
	}
	sig := Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}, Args: []pack.TypeInfo{c0.Type(), c1.Type(), c2.Type(), c3.Type(), c4.Type(), c5.Type()}}
	return newCallable(sig, func(u *pack.Unpacker, _ *pack.Packer) error {
		a0, err := arg(c0, u, 0)
		if err != nil {
			return err
		}
		a1, err := arg(c1, u, 1)
		if err != nil {
			return err
		}
		a2, err := arg(c2, u, 2)
		if err != nil {
			return err
		}
		a3, err := arg(c3, u, 3)
		if err != nil {
			return err
		}
		a4, err := arg(c4, u, 4)
		if err != nil {
			return err
		}
		a5, err := arg(c5, u, 5)
		if err != nil {
			return err
		}
		if err := finish(u); err != nil {
			return err
		}
		if err := fn(a0, a1, a2, a3, a4, a5); err != nil {
			return failed(err)
		}
		return nil
	})
}
