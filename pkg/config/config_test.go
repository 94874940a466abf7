package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTabPairs(t *testing.T) {
	pairs := parseTabPairs("Form Responses=primary_form, Renewals = primary_renewal,bad-entry,=x,y=")
	assert.Equal(t, []TabPair{
		{Tab: "Form Responses", Source: "primary_form"},
		{Tab: "Renewals", Source: "primary_renewal"},
	}, pairs)

	assert.Nil(t, parseTabPairs(""))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Second))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
}
