package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := "storage:\n  driver: file\n  dir: " + filepath.Join(dir, "carts") + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func cartctl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(t.Context(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun(t *testing.T) {
	cfg := writeConfig(t)
	base := []string{"--config", cfg, "--session", "s1"}
	with := func(extra ...string) []string {
		return append(append([]string{}, base...), extra...)
	}

	out, err := cartctl(t, with("list")...)
	require.NoError(t, err)
	assert.Equal(t, "Your cart is empty\n", out)

	out, err = cartctl(t, with("add", "--title", "Rose Bouquet", "--price", "₱1,250.00")...)
	require.NoError(t, err)
	assert.Equal(t, "Rose Bouquet added to cart!\n", out)

	_, err = cartctl(t, with("add", "-t", "Tulip Jar", "-p", "₱499.50")...)
	require.NoError(t, err)

	_, err = cartctl(t, with("change", "-t", "Rose Bouquet", "-d", "2")...)
	require.NoError(t, err)

	out, err = cartctl(t, with("total")...)
	require.NoError(t, err)
	assert.Equal(t, "Total: ₱4,249.50 (4 items)\n", out)

	out, err = cartctl(t, with("list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Rose Bouquet")
	assert.Contains(t, out, "₱3,750.00")
	assert.True(t, strings.HasSuffix(out, "Total: ₱4,249.50\n"))

	out, err = cartctl(t, with("remove", "-t", "Tulip Jar")...)
	require.NoError(t, err)
	assert.Equal(t, "Tulip Jar removed from cart!\n", out)

	_, err = cartctl(t, with("remove", "-t", "Tulip Jar")...)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	out, err = cartctl(t, with("clear")...)
	require.NoError(t, err)
	assert.Equal(t, "Cart has been cleared!\n", out)

	out, err = cartctl(t, "--config", cfg, "--session", "s2", "list")
	require.NoError(t, err)
	assert.Equal(t, "Your cart is empty\n", out)
}

func TestRunErrors(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"NoCommand", []string{"--config", cfg}, errUsage},
		{"UnknownCommand", []string{"--config", cfg, "-s", "s1", "checkout"}, errUsage},
		{"NoSession", []string{"--config", cfg, "list"}, errNoSession},
		{"NoTitle", []string{"--config", cfg, "-s", "s1", "add"}, errNoTitle},
		{"ZeroDelta", []string{"--config", cfg, "-s", "s1", "change", "-t", "A"}, errZeroDelta},
		{"InvalidPrice", []string{"--config", cfg, "-s", "s1", "add", "-t", "A", "-p", "free"}, domain.ErrInvalidPrice},
		{"TailWithoutBroker", []string{"--config", cfg, "tail"}, errNoStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cartctl(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEventPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &eventPrinter{w: &buf}

	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	err := p.HandleCartEvents(t.Context(), []domain.CartEvent{
		{
			Type:       domain.CartItemAdded,
			SessionID:  "s1",
			Title:      "Rose Bouquet",
			Quantity:   1,
			UnitPrice:  domain.Money{Minor: 125000, Currency: domain.PHP},
			CartTotal:  domain.Money{Minor: 125000, Currency: domain.PHP},
			ItemCount:  1,
			OccurredAt: at,
		},
		{
			Type:       domain.CartCleared,
			SessionID:  "s1",
			CartTotal:  domain.Zero(domain.PHP),
			OccurredAt: at,
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `title="Rose Bouquet" qty=1 price=₱1,250.00`)
	assert.Contains(t, lines[1], "cleared")
	assert.NotContains(t, lines[1], "title=")
	assert.Contains(t, lines[1], "total=₱0.00 items=0")
}
