package periodic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	p := Pending[string]()
	assert.True(t, p.IsPending())
	assert.False(t, p.IsReady())
	assert.Equal(t, "<pending>", p.String())

	// A ready zero value is distinguishable from the placeholder by tag.
	r := Ready("")
	got, ok := r.Get()
	assert.True(t, ok)
	assert.Equal(t, "", got)
	assert.NotEqual(t, p, r)

	assert.Equal(t, "42", Ready(42).String())
}
