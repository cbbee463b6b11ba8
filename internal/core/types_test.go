package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoute(t *testing.T) {
	cases := []struct {
		in   string
		want Route
		ok   bool
	}{
		{"general", RouteGeneral, true},
		{"web", RouteWeb, true},
		{"knowledge_base", RouteKnowledgeBase, true},
		{"  WEB  ", RouteWeb, true},
		{"Knowledge_Base\n", RouteKnowledgeBase, true},
		{"", "", false},
		{"knowledge base", "", false},
		{"websearch", "", false},
		{"the web route", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRoute(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestRouteValid(t *testing.T) {
	for _, route := range Routes() {
		assert.True(t, route.Valid())
	}
	assert.False(t, Route("psychic").Valid())
	assert.False(t, Route("").Valid())
}

func TestRoutesStableOrder(t *testing.T) {
	assert.Equal(t, []Route{RouteGeneral, RouteWeb, RouteKnowledgeBase}, Routes())
}
