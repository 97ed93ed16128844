// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-load session token and the widget's UI flags.
//
// # Key Types
//
//   - Token: session_<unix-ms>_<random>, sent with every request
//   - State: open, typing, generating and user-scrolling flags plus the send gate
//
// # Usage
//
//	st := session.NewState(session.DefaultScrollThreshold)
//	if err := st.BeginSend(); err != nil {
//	    return // a send is already outstanding
//	}
//	defer st.EndSend()
package session
