package middleware

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/products", want: "/api/products"},
		{path: "/api/products/search", want: "/api/products/search"},
		{path: "/api/products/" + id, want: "/api/products/:id"},
		{path: "/api/orders", want: "/api/orders"},
		{path: "/api/orders/" + id, want: "/api/orders/:id"},
		{path: "/api/admin/orders", want: "/api/admin/orders"},
		{path: "/api/admin/orders/" + id + "/status", want: "/api/admin/orders/:id/status"},
		{path: "/api/cart", want: "/api/cart"},
		{path: "/api/cart/items", want: "/api/cart/items"},
		{path: "/api/cart/items/" + id, want: "/api/cart/items/:product_id"},
		{path: "/api/cart/checkout", want: "/api/cart/checkout"},
		{path: "/healthz", want: "/healthz"},
		{path: "/metrics", want: "/metrics"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.path), "path %s", tt.path)
	}
}
