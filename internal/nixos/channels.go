package nixos

import "strings"

// channelIndices maps a channel identifier to the opaque upstream index
// name search.nixos.org serves it under, per spec.md §3 "Channel
// descriptor" and elasticsearch_client.py's available_channels map.
var channelIndices = map[string]string{
	"unstable": "latest-42-nixos-unstable",
	"24.11":    "latest-42-nixos-24.11",
}

// defaultChannel is the channel selected at construction time and the
// fallback for any channel name channelIndices doesn't recognize.
const defaultChannel = "unstable"

// resolveChannel normalizes channel and returns (channelName, indexID).
// "stable" is an alias for the table's most recent non-unstable entry
// (here "24.11"); anything else unrecognized falls back to defaultChannel,
// per spec.md §9 Open Question (iii).
func resolveChannel(channel string) (string, string) {
	c := strings.ToLower(strings.TrimSpace(channel))
	if c == "stable" {
		c = "24.11"
	}
	if idx, ok := channelIndices[c]; ok {
		return c, idx
	}
	return defaultChannel, channelIndices[defaultChannel]
}
