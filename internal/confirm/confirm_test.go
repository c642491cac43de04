package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialog_AskResolve(t *testing.T) {
	d := NewDialog()

	d.OnOpen(func(req Request) {
		go func() {
			assert.Equal(t, "Are you sure?", req.Prompt.Title)
			assert.Equal(t, "Delete", req.Prompt.ConfirmText)
			assert.NoError(t, d.Resolve(req.ID, true))
		}()
	})

	ok, err := d.Ask(context.Background(), Prompt{ConfirmText: "Delete"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, open := d.Pending()
	assert.False(t, open)
}

func TestDialog_ReplacedRequestResolvesFalse(t *testing.T) {
	d := NewDialog()

	first := make(chan bool, 1)

	go func() {
		ok, _ := d.Ask(context.Background(), Prompt{Title: "first"})
		first <- ok
	}()

	require.Eventually(t, func() bool {
		_, open := d.Pending()
		return open
	}, time.Second, time.Millisecond)

	old, _ := d.Pending()

	second := make(chan bool, 1)

	go func() {
		ok, _ := d.Ask(context.Background(), Prompt{Title: "second"})
		second <- ok
	}()

	assert.False(t, <-first)

	require.Eventually(t, func() bool {
		req, open := d.Pending()
		return open && req.ID != old.ID
	}, time.Second, time.Millisecond)

	require.ErrorIs(t, d.Resolve(old.ID, true), ErrStaleRequest)

	req, _ := d.Pending()
	assert.Equal(t, "second", req.Prompt.Title)
	require.NoError(t, d.Resolve(req.ID, true))
	assert.True(t, <-second)

	require.ErrorIs(t, d.Resolve(req.ID, true), ErrNoPending)
}

func TestDialog_Independent(t *testing.T) {
	a, b := NewDialog(), NewDialog()

	b.OnOpen(func(req Request) { go func() { _ = b.Resolve(req.ID, false) }() })
	a.OnOpen(func(req Request) { go func() { _ = a.Resolve(req.ID, true) }() })

	okA, err := a.Ask(context.Background(), Prompt{})
	require.NoError(t, err)

	okB, err := b.Ask(context.Background(), Prompt{})
	require.NoError(t, err)

	assert.True(t, okA)
	assert.False(t, okB)
}

func TestDialog_ContextDone(t *testing.T) {
	d := NewDialog()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ok, err := d.Ask(ctx, Prompt{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)

	_, open := d.Pending()
	assert.False(t, open)
}

func TestPrompter(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "yes", input: "y\n", expected: true},
		{name: "confirm text", input: " Delete \n", expected: true},
		{name: "no", input: "n\n"},
		{name: "empty line", input: "\n"},
		{name: "end of input", input: ""},
		{name: "yes without newline", input: "yes", expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			d := NewDialog()
			NewPrompter(strings.NewReader(tc.input), &out).Attach(d)

			ok, err := d.Ask(context.Background(), Prompt{Title: "Delete user 5?", ConfirmText: "Delete"})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
			assert.Contains(t, out.String(), "Delete user 5?")
			assert.Contains(t, out.String(), "[Delete/Cancel]")
		})
	}
}
