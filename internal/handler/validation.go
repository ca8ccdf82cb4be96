package handler

import "regexp"

var (
	// youtubeChannelIDPattern matches canonical YouTube channel IDs.
	youtubeChannelIDPattern = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

	// snowflakePattern matches Discord guild and channel IDs.
	snowflakePattern = regexp.MustCompile(`^[0-9]{17,20}$`)
)

func validYoutubeChannelID(id string) bool {
	return youtubeChannelIDPattern.MatchString(id)
}

func validSnowflake(id string) bool {
	return snowflakePattern.MatchString(id)
}
