package slack

// BuildDiscordanceMessage is exported for testing
var BuildDiscordanceMessage = buildDiscordanceMessage
