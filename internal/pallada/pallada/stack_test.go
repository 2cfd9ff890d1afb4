package pallada

import (
	"math/big"
	"testing"
)

func TestStack_PushPop(t *testing.T) {
	stack := NewStack()

	value := big.NewInt(42)
	if err := stack.Push(value); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if stack.Len() != 1 {
		t.Fatalf("Expected stack length 1, got %d", stack.Len())
	}

	popped, err := stack.Pop()
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if popped.Cmp(value) != 0 {
		t.Fatalf("Expected %v, got %v", value, popped)
	}
	if stack.Len() != 0 {
		t.Fatalf("Expected stack length 0, got %d", stack.Len())
	}
}

func TestStack_Underflow(t *testing.T) {
	stack := NewStack()

	if _, err := stack.Pop(); err != ErrStackUnderflow {
		t.Fatalf("Expected ErrStackUnderflow, got %v", err)
	}
	if _, err := stack.Peek(); err != ErrStackUnderflow {
		t.Fatalf("Expected ErrStackUnderflow, got %v", err)
	}
	if err := stack.Dup(1); err != ErrStackUnderflow {
		t.Fatalf("Expected ErrStackUnderflow, got %v", err)
	}
	stack.Push(big.NewInt(1))
	if err := stack.Swap(1); err != ErrStackUnderflow {
		t.Fatalf("Expected ErrStackUnderflow, got %v", err)
	}
	if _, err := stack.PopN(2); err != ErrStackUnderflow {
		t.Fatalf("Expected ErrStackUnderflow, got %v", err)
	}
}

func TestStack_Overflow(t *testing.T) {
	stack := NewStack()
	for i := 0; i < MaxStackDepth; i++ {
		if err := stack.Push(big.NewInt(int64(i))); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}
	if err := stack.Push(big.NewInt(0)); err != ErrStackOverflow {
		t.Fatalf("Expected ErrStackOverflow, got %v", err)
	}
}

func TestStack_DupCopiesValue(t *testing.T) {
	stack := NewStack()
	stack.Push(big.NewInt(7))
	stack.Push(big.NewInt(9))

	// Dup(2) дублирует второй элемент с вершины
	if err := stack.Dup(2); err != nil {
		t.Fatalf("Dup failed: %v", err)
	}
	top, _ := stack.Peek()
	if top.Int64() != 7 {
		t.Fatalf("Expected 7 on top, got %v", top)
	}

	// копия не должна разделять память с оригиналом
	top.SetInt64(100)
	stack.Pop()
	stack.Pop()
	orig, _ := stack.Pop()
	if orig.Int64() != 7 {
		t.Fatalf("Dup must copy the value, original became %v", orig)
	}
}

func TestStack_Swap(t *testing.T) {
	stack := NewStack()
	for _, v := range []int64{1, 2, 3} {
		stack.Push(big.NewInt(v))
	}

	// Swap(2): вершина (3) меняется с третьим элементом (1)
	if err := stack.Swap(2); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	values, err := stack.PopN(3)
	if err != nil {
		t.Fatalf("PopN failed: %v", err)
	}
	want := []int64{1, 2, 3}
	for i, v := range values {
		if v.Int64() != want[i] {
			t.Fatalf("position %d: expected %d, got %v", i, want[i], v)
		}
	}
}
