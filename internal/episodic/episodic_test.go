package episodic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStore_ErrorsWithoutCredentials(t *testing.T) {
	_, err := NewStore("", "")
	assert.Error(t, err)

	_, err = NewStore("https://example.supabase.co", "")
	assert.Error(t, err)

	_, err = NewStore("", "anon-key")
	assert.Error(t, err)
}
