// Package domain contains the core values of the attach notification channel.
//
// It has no dependencies on infrastructure concerns (sockets, logging, files)
// and contains only the command vocabulary and the error taxonomy.
//
// # Values
//
//   - [Notification]: an Attach or Detach command and its boolean argument
//   - [Message]: an immutable outbound payload held by the queue
//
// # Errors
//
// Connect, write and read failures are distinct sentinels so callers and
// event handlers can tell them apart with errors.Is. None of them is fatal to
// the channel.
package domain
