// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view for the companion.

# Layout

	+--------------------------------------------+-----------------+
	| title / caption                            |                 |
	+--------------------------------------------+ configuration   |
	| transcript viewport                        | sidebar         |
	|   You      > query                         | (wide only)     |
	|   Assistant> markdown reply                |                 |
	+--------------------------------------------+-----------------+
	| status: spinner + busy text, error, or Ready                 |
	| > input                                                      |
	| key help                                                     |
	+--------------------------------------------------------------+

# Turns

Enter submits the input through session.Session.Submit on a goroutine.
Relay events come back over a buffered channel as TurnStartedMsg and
StreamUpdateMsg, each re-arming waitForTurn, and the turn ends with
TurnCompleteMsg or TurnFailedMsg. Each StreamUpdateMsg carries the full
reply so far, which replaces the in-flight bubble. On completion the whole
transcript is re-rendered with the committed reply as markdown.

Only one turn runs at a time; Enter is ignored while one is in flight.
*/
package chat
