package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethod(t *testing.T) {
	assert.True(t, MethodGet.IsValid())
	assert.True(t, MethodDelete.IsValid())
	assert.False(t, Method("PATCH").IsValid())
	assert.Equal(t, "post", MethodPost.Wire())
	assert.Equal(t, "PUT", MethodPut.String())
}

func TestData(t *testing.T) {
	resp := NewDocument().Put(DataField, NewDocument().Put("id", "a"))
	assert.True(t, HasData(resp))
	assert.NotNil(t, Data(resp))

	empty := NewDocument().Put(DataField, nil)
	assert.False(t, HasData(empty))
	assert.Nil(t, Data(empty))
	assert.False(t, HasData(nil))
}
