// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the boxoffice binary.
//
// [Command] is a named node with an optional [pflag.FlagSet] factory,
// nested [Command.Subcommands], and a Run function. [Command.Execute]
// parses flags, routes to subcommands, and prints help with examples.
// Unknown commands and flags get a "did you mean" suggestion when a
// known name is within edit distance 3.
//
// Parameter structs declare their flags with struct tags and are bound
// by [FlagsFromParams]. Embedding [GlobalParams] adds --config and
// --verbose; embedding [JSONOutput] adds --json.
//
// Failures are reported as [ToolError] values carrying an
// [ErrorCategory], which [ExitCodeFor] turns into a process exit code.
package cli
