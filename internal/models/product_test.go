package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalogo/internal/models"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12.50", 12.5},
		{"12,50", 12.5},
		{"0", 0},
		{" 7 ", 7},
		{"1000,99", 1000.99},
	}
	for _, c := range cases {
		got, err := models.ParsePrice(c.in)
		assert.NoError(t, err, "price %q", c.in)
		assert.Equal(t, c.want, got, "price %q", c.in)
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "-1", "-0,5", "1,2,3"} {
		_, err := models.ParsePrice(in)
		assert.Error(t, err, "price %q should be rejected", in)
	}
}
