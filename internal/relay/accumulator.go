// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import "strings"

// Accumulator is the growing concatenation of fragment text for one reply.
// It is owned by a single request and is not safe for concurrent use.
type Accumulator struct {
	sb        strings.Builder
	fragments int
}

// Append adds text and returns the new total. grew is false when text is
// empty, in which case the total is unchanged.
func (a *Accumulator) Append(text string) (total string, grew bool) {
	a.fragments++
	if text == "" {
		return a.sb.String(), false
	}
	a.sb.WriteString(text)
	return a.sb.String(), true
}

// String returns the total accumulated so far.
func (a *Accumulator) String() string {
	return a.sb.String()
}

// Fragments returns how many fragments have been appended, empty ones included.
func (a *Accumulator) Fragments() int {
	return a.fragments
}

// Len returns the byte length of the total.
func (a *Accumulator) Len() int {
	return a.sb.Len()
}
