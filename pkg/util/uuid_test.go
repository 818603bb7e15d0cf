package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashUUID_Stable(t *testing.T) {
	a := HashUUID([]string{"1.2.3", "series"})
	b := HashUUID([]string{"1.2.3", "series"})
	c := HashUUID([]string{"1.2.4", "series"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestHashUID(t *testing.T) {
	uid := HashUID("1.2.3")
	assert.True(t, strings.HasPrefix(uid, "2.25."))
	assert.Equal(t, uid, HashUID("1.2.3"))
	assert.LessOrEqual(t, len(uid), 64)
	assert.Empty(t, HashUID(func() {}))
}
