// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package cache provides lookup data structures shared across Visitline packages.

AhoCorasick finds every occurrence of a fixed set of tokens in one pass over
the text. PatternMatcher wraps a built automaton for the common "does this
text contain any of these tokens" question. The presence package uses one
matcher per user agent family to classify clients:

	edge := cache.NewPatternMatcher([]string{"edg/", "edge/"}, "Edge")
	if edge.Contains(userAgent) {
		...
	}

Matching is case-insensitive. Automata are immutable after Build and safe for
concurrent searches.
*/
package cache
