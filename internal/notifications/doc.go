// Package notifications delivers board events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Events cover
// records that appear on a watched board, finalizations that stopped part
// way, and operator-visible errors.
package notifications
