package vectordb

import (
	"errors"
	"strings"
	"testing"
)

func TestMissingCollectionError(t *testing.T) {
	err := missingCollection("mypapers")

	if !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("errors.Is(err, ErrCollectionNotFound) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "mypapers") {
		t.Errorf("error %q does not name the collection", err)
	}
}
