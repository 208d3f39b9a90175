package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestResult_OkErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok result misreported")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatalf("got (%d, %v)", v, err)
	}

	boom := errors.New("boom")
	e := Err[int](boom)
	if e.IsOk() {
		t.Fatal("Err result misreported")
	}
	if _, err := e.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if e.UnwrapOr(7) != 7 {
		t.Fatal("UnwrapOr fallback not used")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); r.IsErr() {
		t.Fatal("nil error must be Ok")
	}
	if r := FromPair(1, errors.New("x")); r.IsOk() {
		t.Fatal("error must be Err")
	}
}

func TestThen_ComposesAndShortCircuits(t *testing.T) {
	double := Stage[int, int](func(_ context.Context, n int) Result[int] { return Ok(n * 2) })
	str := Stage[int, string](func(_ context.Context, n int) Result[string] { return Ok(strconv.Itoa(n)) })

	out := Then(double, str)(context.Background(), 21)
	if v, _ := out.Unwrap(); v != "42" {
		t.Fatalf("got %q", v)
	}

	boom := errors.New("boom")
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](boom) })
	called := false
	spy := Stage[int, string](func(_ context.Context, n int) Result[string] {
		called = true
		return Ok("never")
	})
	out2 := Then(fail, spy)(context.Background(), 1)
	if _, err := out2.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if called {
		t.Fatal("second stage ran after failure")
	}
}

func TestTracedStage_PassesThrough(t *testing.T) {
	st := TracedStage("noop", Stage[int, int](func(_ context.Context, n int) Result[int] { return Ok(n + 1) }))
	if v, _ := st(context.Background(), 1).Unwrap(); v != 2 {
		t.Fatalf("got %d", v)
	}
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, func(n int) int { return n * n })
	if len(got) != 3 || got[2] != 9 {
		t.Fatalf("got %v", got)
	}
}

func TestChunk(t *testing.T) {
	got := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Fatalf("got %v", got)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Fatal("n <= 0 must return nil")
	}
}
