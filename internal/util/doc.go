// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the session, config, and
// display packages.
//
// String Utilities:
//   - NormalizeInput: whitespace trim plus Unicode NFC for user queries
//   - TruncateRunes, TruncateWidth: UTF-8 safe truncation with ellipsis
//   - StringWidth, RuneLen, FirstLine
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
