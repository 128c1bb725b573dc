package emitter

import "testing"

func TestTransitionLegalMoves(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusUnknown, StatusNew},
		{StatusUnknown, StatusCached},
		{StatusUnknown, StatusBlacklisted},
		{StatusNew, StatusCached},
		{StatusNew, StatusBlacklisted},
		{StatusCached, StatusChanged},
		{StatusCached, StatusBlacklisted},
		{StatusChanged, StatusCached},
		{StatusChanged, StatusBlacklisted},
	}
	for _, c := range cases {
		if got := Transition(c.from, c.to); got != c.to {
			t.Errorf("Transition(%s, %s) = %s, want %s", c.from, c.to, got, c.to)
		}
	}
}

func TestTransitionIllegalMovesAreNoops(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusNew, StatusChanged},
		{StatusNew, StatusUnknown},
		{StatusCached, StatusNew},
		{StatusCached, StatusUnknown},
		{StatusChanged, StatusNew},
		{StatusBlacklisted, StatusUnknown},
		{StatusBlacklisted, StatusNew},
		{StatusBlacklisted, StatusCached},
		{StatusBlacklisted, StatusChanged},
	}
	for _, c := range cases {
		if got := Transition(c.from, c.to); got != c.from {
			t.Errorf("Transition(%s, %s) = %s, want unchanged %s", c.from, c.to, got, c.from)
		}
	}
}

func TestTransitionIsTotal(t *testing.T) {
	all := []Status{StatusUnknown, StatusNew, StatusCached, StatusChanged, StatusBlacklisted}
	for _, from := range all {
		for _, to := range all {
			got := Transition(from, to)
			if got != from && got != to {
				t.Errorf("Transition(%s, %s) produced third state %s", from, to, got)
			}
			if from == StatusBlacklisted && got != StatusBlacklisted {
				t.Errorf("blacklisted must be terminal, Transition(%s, %s) = %s", from, to, got)
			}
		}
	}
}
