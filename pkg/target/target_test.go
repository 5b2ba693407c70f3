package target_test

import (
	"testing"

	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/stretchr/testify/assert"
)

func TestChangeRef(t *testing.T) {
	tests := []struct {
		id       target.ChangeID
		ps       int
		expected string
	}{
		{1, 1, "refs/changes/01/1/1"},
		{1234, 2, "refs/changes/34/1234/2"},
		{100, 3, "refs/changes/00/100/3"},
		{7, 12, "refs/changes/07/7/12"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, target.ChangeRef(tt.id, tt.ps))
		})
	}
}
