package core

import (
	"context"
	"testing"
	"time"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()
	var order []string
	tag := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, call *Call) error {
				order = append(order, name)
				return next(ctx, call)
			}
		}
	}
	h := Chain(func(ctx context.Context, call *Call) error {
		order = append(order, "handler")
		return nil
	}, tag("outer"), tag("inner"))

	if err := h(context.Background(), &Call{}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Fatalf("order = %v", order)
	}
}

func TestMWPanicRecover(t *testing.T) {
	t.Parallel()
	h := Chain(func(ctx context.Context, call *Call) error {
		panic("kaboom")
	}, MWPanicRecover(nopLogger()))

	err := h(context.Background(), &Call{Trigger: "/crash"})
	if err == nil {
		t.Fatal("panic not converted to error")
	}
}

func TestMWTimeout(t *testing.T) {
	t.Parallel()
	h := Chain(func(ctx context.Context, call *Call) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}, MWTimeout(20*time.Millisecond))

	start := time.Now()
	err := h(context.Background(), &Call{})
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout did not cut the invocation short")
	}
}

func TestMWTimeoutDisabled(t *testing.T) {
	t.Parallel()
	h := Chain(func(ctx context.Context, call *Call) error {
		if _, ok := ctx.Deadline(); ok {
			t.Fatal("deadline set with timeout disabled")
		}
		return nil
	}, MWTimeout(0))
	if err := h(context.Background(), &Call{}); err != nil {
		t.Fatal(err)
	}
}
