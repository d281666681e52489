// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Fragment
		want    string
		wantErr bool
	}{
		{"plain", PlainText("hello"), "hello", false},
		{"empty plain", PlainText(""), "", false},
		{"structured", StructuredChunk{Content: "code", Metadata: map[string]any{"model": "m"}}, "code", false},
		{"structured pointer", &StructuredChunk{Content: "ptr"}, "ptr", false},
		{"nil", nil, "", true},
		{"nil pointer", (*StructuredChunk)(nil), "", true},
		{"invalid utf8", PlainText("\xc3\x28"), "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedFragment) {
					t.Fatalf("Normalize() err = %v, want ErrMalformedFragment", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() err = %v", err)
			}
			if got != tc.want {
				t.Errorf("Normalize() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator

	total, grew := acc.Append("A ")
	if !grew || total != "A " {
		t.Errorf("Append = %q, %v", total, grew)
	}
	total, grew = acc.Append("")
	if grew || total != "A " {
		t.Errorf("Append(empty) = %q, %v; want unchanged", total, grew)
	}
	total, _ = acc.Append("for-loop")
	if total != "A for-loop" || acc.String() != total {
		t.Errorf("total = %q", total)
	}
	if acc.Fragments() != 3 {
		t.Errorf("Fragments = %d, want 3", acc.Fragments())
	}
	if acc.Len() != len("A for-loop") {
		t.Errorf("Len = %d", acc.Len())
	}
}
