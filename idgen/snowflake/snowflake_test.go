package snowflake

import (
	"sync"
	"testing"
)

// TestNextID 测试ID生成
func TestNextID(t *testing.T) {
	t.Run("生成的ID单调递增", func(t *testing.T) {
		gen, err := NewGenerator(1)
		if err != nil {
			t.Fatalf("NewGenerator failed: %v", err)
		}
		var last int64
		for i := 0; i < 1000; i++ {
			id, err := gen.NextID()
			if err != nil {
				t.Fatalf("NextID failed: %v", err)
			}
			if id <= last {
				t.Fatalf("id not monotonic: %d <= %d", id, last)
			}
			last = id
		}
	})

	t.Run("并发生成不重复", func(t *testing.T) {
		gen, _ := NewGenerator(1)
		const n = 200
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ids <- gen.Generate()
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool, n)
		for id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id generated: %d", id)
			}
			seen[id] = true
		}
	})

	t.Run("节点编号越界返回错误", func(t *testing.T) {
		if _, err := NewGenerator(maxNodeID + 1); err == nil {
			t.Error("expected error for out-of-range node ID")
		}
		if _, err := NewGenerator(-1); err == nil {
			t.Error("expected error for negative node ID")
		}
	})
}

// TestParse 测试ID解析
func TestParse(t *testing.T) {
	gen, _ := NewGenerator(7)
	id := gen.Generate()
	parts := Parse(id)
	if parts["nodeID"] != 7 {
		t.Errorf("expected nodeID 7, got %d", parts["nodeID"])
	}
	if parts["timestamp"] <= epoch {
		t.Errorf("timestamp should be after epoch, got %d", parts["timestamp"])
	}
}
