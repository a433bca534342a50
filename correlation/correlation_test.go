// Package correlation_test contains tests for the correlation package.
package correlation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/cqrsbus/correlation"
)

func TestInject(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		expectID  string
		expectSet bool
	}{
		{
			name:      "installs identifier",
			id:        "abc-123",
			expectID:  "abc-123",
			expectSet: true,
		},
		{
			name:      "empty identifier leaves context untouched",
			id:        "",
			expectSet: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := correlation.Inject(t.Context(), tt.id)

			id, ok := correlation.FromContext(ctx)
			assert.Equal(t, tt.expectSet, ok)
			assert.Equal(t, tt.expectID, id)
		})
	}
}

func TestClear(t *testing.T) {
	ctx := correlation.Inject(t.Context(), "abc-123")

	cleared := correlation.Clear(ctx)

	_, ok := correlation.FromContext(cleared)
	assert.False(t, ok)

	// The outer scope keeps its identifier.
	id, ok := correlation.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
}

func TestEnsure(t *testing.T) {
	t.Run("keeps existing identifier", func(t *testing.T) {
		ctx := correlation.Inject(t.Context(), "existing")

		_, id := correlation.Ensure(ctx)
		assert.Equal(t, "existing", id)
	})

	t.Run("generates when absent", func(t *testing.T) {
		ctx, id := correlation.Ensure(t.Context())
		require.NotEmpty(t, id)

		got, ok := correlation.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, id, got)
	})
}

func TestConcurrentIsolation(t *testing.T) {
	// Two tasks install different identifiers concurrently; each must only
	// ever observe its own.
	const iterations = 200

	var wg sync.WaitGroup

	observe := func(id string) {
		defer wg.Done()

		for range iterations {
			ctx := correlation.Inject(context.Background(), id)

			got, ok := correlation.FromContext(ctx)
			assert.True(t, ok)
			assert.Equal(t, id, got)
		}
	}

	wg.Add(2)
	go observe("AAA")
	go observe("BBB")
	wg.Wait()
}
